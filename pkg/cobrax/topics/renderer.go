package topics

// Renderer formats topic content for the terminal. ext is the file
// extension including the dot.
type Renderer interface {
	Render(content string, ext string) string
}

// PlainRenderer returns content as-is
type PlainRenderer struct{}

func (PlainRenderer) Render(content string, ext string) string {
	return content
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(content string, ext string) string

func (f RendererFunc) Render(content string, ext string) string {
	return f(content, ext)
}
