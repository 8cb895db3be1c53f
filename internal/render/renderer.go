package render

import "context"

type Renderer interface {
	RenderArticle(ctx context.Context, page ArticlePage) ([]byte, error)
}
