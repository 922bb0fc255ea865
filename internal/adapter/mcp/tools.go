package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mdindex/internal/domain"
)

// Tool names.
const (
	ToolFindFiles    = "find_files_with"
	ToolListFiles    = "list_all_files"
	ToolListKeywords = "list_all_keywords"
	ToolFullText     = "fulltext_search"
	ToolShowFile     = "show_file"
)

// FindFilesInput is the input schema for find_files_with.
type FindFilesInput struct {
	Keywords []string `json:"keywords" jsonschema:"search terms, e.g. docker, container, build"`
	Language string   `json:"language,omitempty" jsonschema:"only documents in this language, e.g. en or de"`
}

// LanguageInput filters by document language.
type LanguageInput struct {
	Language string `json:"language,omitempty" jsonschema:"only documents in this language, e.g. en or de"`
}

// FullTextInput is the input schema for fulltext_search.
type FullTextInput struct {
	Query    string `json:"query" jsonschema:"text to look for, e.g. docker-compose or SELECT * FROM"`
	Language string `json:"language,omitempty" jsonschema:"only documents in this language, e.g. en or de"`
}

// ShowFileInput is the input schema for show_file.
type ShowFileInput struct {
	Filename string `json:"filename" jsonschema:"exact file name including the .md extension"`
}

// FilesOutput lists indexed documents.
type FilesOutput struct {
	Files []domain.FileEntry `json:"files" jsonschema:"matching documents with their keywords"`
}

// KeywordsOutput lists keywords with document counts.
type KeywordsOutput struct {
	Keywords []domain.KeywordCount `json:"keywords" jsonschema:"keywords sorted alphabetically with the number of documents carrying each"`
}

// FullTextOutput lists full-text hits.
type FullTextOutput struct {
	Results []domain.SearchHit `json:"results" jsonschema:"documents containing the text, most matches first"`
}

// ShowFileOutput carries a document's content.
type ShowFileOutput struct {
	Filename string `json:"filename"`
	Content  string `json:"content" jsonschema:"the Markdown source, or an error message"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolFindFiles,
		Description: `Finds documents whose extracted keywords include any of the given terms.

Use it to find documents on a topic, as the first step before reading content.
Pass nouns, verbs or technical terms; several related terms widen the search.
Returns filename, uri, language and keywords per document, or an empty list.
With no hits try synonyms, other languages or more general terms.`,
	}, s.handleFindFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolListFiles,
		Description: `Lists every indexed Markdown document with its keywords, sorted by filename.

Use it for an overview or when you do not know which keywords to search for.`,
	}, s.handleListFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolListKeywords,
		Description: `Lists every keyword in the index with the number of documents carrying it.

Use it first when unsure which terms are searchable with find_files_with.
The most frequent keywords show what the collection is about.`,
	}, s.handleListKeywords)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolFullText,
		Description: `Searches the full content of every document for a piece of text, ignoring case.

Use it when find_files_with finds nothing, or for exact strings that are not
keywords: code, configuration values, URLs. The query needs at least two
characters. Returns match counts and a preview around the first match.`,
	}, s.handleFullText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: ToolShowFile,
		Description: `Returns the full Markdown content of one document.

Use the exact filename from a previous search or listing, e.g. kubernetes-basics.md.`,
	}, s.handleShowFile)
}

func (s *Server) handleFindFiles(ctx context.Context, _ *mcp.CallToolRequest, input FindFilesInput) (*mcp.CallToolResult, FilesOutput, error) {
	start := time.Now()
	files, err := s.queries.SearchKeywords(ctx, input.Keywords, input.Language)
	if err != nil {
		return nil, FilesOutput{}, err
	}
	s.logger.Debug("tool call", "tool", ToolFindFiles, "keywords", input.Keywords, "results", len(files), "duration", time.Since(start))
	return nil, FilesOutput{Files: nonNil(files)}, nil
}

func (s *Server) handleListFiles(ctx context.Context, _ *mcp.CallToolRequest, input LanguageInput) (*mcp.CallToolResult, FilesOutput, error) {
	files, err := s.queries.ListFiles(ctx, input.Language)
	if err != nil {
		return nil, FilesOutput{}, err
	}
	return nil, FilesOutput{Files: nonNil(files)}, nil
}

func (s *Server) handleListKeywords(ctx context.Context, _ *mcp.CallToolRequest, input LanguageInput) (*mcp.CallToolResult, KeywordsOutput, error) {
	counts, err := s.queries.KeywordCounts(ctx, input.Language)
	if err != nil {
		return nil, KeywordsOutput{}, err
	}
	return nil, KeywordsOutput{Keywords: nonNil(counts)}, nil
}

func (s *Server) handleFullText(ctx context.Context, _ *mcp.CallToolRequest, input FullTextInput) (*mcp.CallToolResult, FullTextOutput, error) {
	start := time.Now()
	hits, err := s.queries.FullText(ctx, input.Query, input.Language)
	if err != nil {
		return nil, FullTextOutput{}, err
	}
	s.logger.Debug("tool call", "tool", ToolFullText, "query", input.Query, "results", len(hits), "duration", time.Since(start))
	return nil, FullTextOutput{Results: nonNil(hits)}, nil
}

func (s *Server) handleShowFile(ctx context.Context, _ *mcp.CallToolRequest, input ShowFileInput) (*mcp.CallToolResult, ShowFileOutput, error) {
	content, err := s.queries.Fetch(ctx, input.Filename)
	if err != nil {
		return nil, ShowFileOutput{}, err
	}
	return nil, ShowFileOutput{Filename: input.Filename, Content: content}, nil
}

// nonNil keeps empty results encoding as [] rather than null, which the
// output schema would reject.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
