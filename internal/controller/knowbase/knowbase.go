package knowbase

type ControllerV1 struct{}

func NewV1() *ControllerV1 {
	return &ControllerV1{}
}
