package skills

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// ParseError reports a document that could not be parsed into a SkillRecord.
// It is scoped to a single file: callers skip the file and continue.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse skill document %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to parse skill document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse extracts a SkillRecord from a skill document. The document must begin
// with a YAML frontmatter block containing at least a name field; optional
// fields get defaults. Unknown frontmatter keys are preserved in RawMetadata.
func Parse(content []byte, sourcePath string) (*SkillRecord, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, &ParseError{Path: sourcePath, Err: errors.Wrap(err, "failed to parse markdown")}
	}

	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, &ParseError{Path: sourcePath, Err: errors.Wrap(err, "invalid frontmatter")}
	}
	if metaData == nil {
		return nil, &ParseError{Path: sourcePath, Err: errors.New("missing frontmatter")}
	}

	body, ok := extractBody(string(content))
	if !ok {
		return nil, &ParseError{Path: sourcePath, Err: errors.New("frontmatter block is not closed")}
	}

	var fields Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &fields,
	})
	if err != nil {
		return nil, &ParseError{Path: sourcePath, Err: errors.Wrap(err, "failed to create frontmatter decoder")}
	}
	if err := decoder.Decode(metaData); err != nil {
		return nil, &ParseError{Path: sourcePath, Err: errors.Wrap(err, "failed to decode frontmatter")}
	}

	if fields.Name == "" {
		return nil, &ParseError{Path: sourcePath, Err: errors.New("skill name is required in frontmatter")}
	}
	if fields.Version == "" {
		fields.Version = DefaultVersion
	}
	if fields.Author == "" {
		fields.Author = DefaultAuthor
	}
	if fields.Category == "" {
		fields.Category = DefaultCategory
	}

	return &SkillRecord{
		Name:        fields.Name,
		Description: fields.Description,
		Version:     fields.Version,
		Author:      fields.Author,
		Category:    fields.Category,
		Tags:        fields.Tags,
		RawMetadata: metaData,
		Body:        body,
		SourcePath:  sourcePath,
	}, nil
}

// extractBody removes the YAML frontmatter block and returns the trimmed
// body. It reports false when the block's closing marker is missing: the
// format requires the three-dash marker both at the start of the document and
// again on its own line at the end of the header.
func extractBody(content string) (string, bool) {
	if !strings.HasPrefix(content, "---") {
		return "", false
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n")), true
		}
	}

	return "", false
}
