package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Prompt names.
const (
	PromptResearchTopic     = "research_topic"
	PromptSummarizeDocument = "summarize_document"
	PromptKnowledgeGaps     = "find_knowledge_gaps"
)

type promptDef struct {
	name        string
	description string
	argument    string
	argDesc     string
	render      func(arg string) string
}

var prompts = []promptDef{
	{
		name:        PromptResearchTopic,
		description: "Systematically research a topic in the document collection.",
		argument:    "topic",
		argDesc:     "the topic to research",
		render: func(topic string) string {
			return fmt.Sprintf(`I want to learn everything about %[1]q from the document collection.

Please proceed as follows:
1. Search for documents with keywords about %[1]q and related terms (%[2]s)
2. List the documents found with a short assessment of their relevance
3. Read the most relevant documents (%[3]s)
4. Summarize the key information about %[1]q

If no documents are found, list all available documents (%[4]s) and check
whether any of them could be indirectly relevant.`, topic, ToolFindFiles, ToolShowFile, ToolListFiles)
		},
	},
	{
		name:        PromptSummarizeDocument,
		description: "Summarize one document.",
		argument:    "filename",
		argDesc:     "exact file name of the document",
		render: func(filename string) string {
			return fmt.Sprintf(`Please summarize the document %[1]q.

Proceed as follows:
1. Load the content of %[1]q (%[2]s)
2. Write a structured summary with:
   - Main topic (one sentence)
   - Key points (bullet points)
   - Important details or code examples
   - Related topics (based on the keywords)`, filename, ToolShowFile)
		},
	},
	{
		name:        PromptKnowledgeGaps,
		description: "Analyse which topics the document collection might be missing.",
		argument:    "domain",
		argDesc:     "the subject area to analyse",
		render: func(domain string) string {
			return fmt.Sprintf(`Analyse the document collection in the area %[1]q.

Please:
1. List all documents (%[2]s)
2. Identify which topics in %[1]q are covered
3. Suggest which documents could be missing to cover the area completely`, domain, ToolListFiles)
		},
	},
}

// PromptNames lists the registered prompts.
func PromptNames() []string {
	names := make([]string, 0, len(prompts))
	for _, p := range prompts {
		names = append(names, p.name)
	}
	return names
}

// RenderPrompt returns the text of the named prompt for arg, as a client
// would receive it.
func RenderPrompt(name, arg string) (string, error) {
	for _, p := range prompts {
		if p.name != name {
			continue
		}
		if strings.TrimSpace(arg) == "" {
			return "", fmt.Errorf("prompt %s: missing argument %q", name, p.argument)
		}
		return p.render(strings.TrimSpace(arg)), nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

func (s *Server) registerPrompts() {
	for _, p := range prompts {
		s.server.AddPrompt(&mcp.Prompt{
			Name:        p.name,
			Description: p.description,
			Arguments: []*mcp.PromptArgument{{
				Name:        p.argument,
				Description: p.argDesc,
				Required:    true,
			}},
		}, promptHandler(p))
	}
}

func promptHandler(p promptDef) mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var arg string
		if req.Params != nil {
			arg = strings.TrimSpace(req.Params.Arguments[p.argument])
		}
		if arg == "" {
			return nil, fmt.Errorf("prompt %s: missing argument %q", p.name, p.argument)
		}
		return &mcp.GetPromptResult{
			Description: p.description,
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: p.render(arg)},
			}},
		}, nil
	}
}
