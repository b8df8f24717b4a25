package cmd

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/knowbase-ai/knowbase/core/config"
	"github.com/knowbase-ai/knowbase/internal/dao"
	"github.com/knowbase-ai/knowbase/internal/history"
	"github.com/knowbase-ai/knowbase/internal/logic/chat"
	"github.com/knowbase-ai/knowbase/internal/service"
)

// InitAll initializes all components of the application
func init() {
	ctx := context.Background()

	// Validate configuration before initializing components
	g.Log().Info(ctx, "Validating application configuration...")
	err := config.ValidateConfiguration(ctx)
	if err != nil {
		g.Log().Fatalf(ctx, "Configuration validation failed:\n%v", err)
	}

	// Initialize database
	var archive *history.Manager
	if err = dao.InitDB(); err != nil {
		g.Log().Warningf(ctx, "Database connection initialization failed, conversation archive disabled: %v", err)
	} else {
		archive = history.NewManager()
	}

	// Initialize shared services: embedding, stores, retriever, orchestrator
	if err = service.InitSharedServices(ctx); err != nil {
		g.Log().Fatalf(ctx, "Shared services initialization failed: %v", err)
	}

	// Initialize chat handler
	chat.InitChat(archive)

	g.Log().Info(ctx, "✓ All components initialized successfully")
}
