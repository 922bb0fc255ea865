package mcp

import (
	"context"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mdindex/internal/usecase"
)

const markdownMIME = "text/markdown"

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: usecase.URIScheme + "{filename}",
		Name:        "markdown-file",
		Description: "Content of an indexed Markdown document, addressed by file name",
		MIMEType:    markdownMIME,
	}, s.handleFileResource)
}

// handleFileResource returns the content of the document named by the URI.
// Unknown names yield the same descriptive text as the show_file tool.
func (s *Server) handleFileResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	name, ok := fileName(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.queries.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: markdownMIME,
			Text:     content,
		}},
	}, nil
}

// fileName extracts the document name from an mdfile:// URI, undoing any
// percent-encoding a client applied.
func fileName(uri string) (string, bool) {
	name, ok := usecase.NameFromURI(uri)
	if !ok {
		return "", false
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	return name, name != ""
}
