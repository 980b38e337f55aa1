package ops

import "github.com/chengpei-next/internal/provider"

// Handler 配送运营接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建运营处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
