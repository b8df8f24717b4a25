package cmd

import (
	"context"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
	"github.com/gogf/gf/v2/os/gcmd"
	"github.com/knowbase-ai/knowbase/core/keyword_store"
	"github.com/knowbase-ai/knowbase/core/vector_store"
	"github.com/knowbase-ai/knowbase/internal/controller/knowbase"
	"github.com/knowbase-ai/knowbase/internal/dao"
	"github.com/knowbase-ai/knowbase/internal/logic/importer"
	gormModel "github.com/knowbase-ai/knowbase/internal/model/gorm"
	"github.com/knowbase-ai/knowbase/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Main = gcmd.Command{
		Name:  "main",
		Usage: "main",
		Brief: "start http server",
		Func: func(ctx context.Context, parser *gcmd.Parser) (err error) {
			s := g.Server()

			s.Group("/api", func(group *ghttp.RouterGroup) {
				group.Middleware(MiddlewareHandlerResponse, ghttp.MiddlewareCORS)
				group.Bind(
					knowbase.NewV1(),
				)
			})

			// Prometheus指标
			s.BindHandler("/metrics", ghttp.WrapH(promhttp.Handler()))

			s.Run()
			return nil
		},
	}

	// Import 知识库CSV导入子命令
	Import = gcmd.Command{
		Name:  "import",
		Usage: "import <knowledge_id> <csv_file>",
		Brief: "import a csv file into a knowledge base",
		Func: func(ctx context.Context, parser *gcmd.Parser) (err error) {
			args := parser.GetArgAll()
			if len(args) < 3 {
				g.Log().Error(ctx, "usage: import <knowledge_id> <csv_file>")
				return nil
			}
			knowledgeId, filePath := args[1], args[2]

			vs, err := vector_store.GetVectorStore()
			if err != nil {
				return err
			}
			ks, err := keyword_store.GetKeywordStore()
			if err != nil {
				g.Log().Warningf(ctx, "keyword store unavailable, importing vectors only: %v", err)
				ks = nil
			}

			im, err := importer.NewImporter(service.GetEmbedder(), vs, ks, service.GetEmbeddingDim())
			if err != nil {
				return err
			}

			count, err := im.ImportCSV(ctx, knowledgeId, filePath)
			if err != nil {
				return err
			}
			g.Log().Infof(ctx, "imported %d documents into %s", count, knowledgeId)

			// 登记知识库
			if dao.HasDB() {
				if regErr := dao.KnowledgeBase.Upsert(ctx, &gormModel.KnowledgeBase{
					ID:            knowledgeId,
					Name:          knowledgeId,
					DocumentCount: int64(count),
					Status:        1,
				}); regErr != nil {
					g.Log().Warningf(ctx, "register knowledge base failed: %v", regErr)
				}
			}
			return nil
		},
	}
)

func init() {
	if err := Main.AddCommand(&Import); err != nil {
		panic(err)
	}
}
