package reader

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"paper2table/internal/schema"
	"paper2table/pkg/ai"
)

// AgentReader extracts tables by sending the paper's page texts to the
// model service.
type AgentReader struct {
	client       *ai.Client
	columnSchema string
	sleep        time.Duration
	log          *zap.SugaredLogger
}

// NewAgentReader builds a reader for the given column schema. sleep is the
// pause before each model call, to respect provider rate limits.
func NewAgentReader(client *ai.Client, columnSchema string, sleep time.Duration, log *zap.Logger) (*AgentReader, error) {
	if _, err := ParseColumnSchema(columnSchema); err != nil {
		return nil, err
	}
	return &AgentReader{
		client:       client,
		columnSchema: columnSchema,
		sleep:        sleep,
		log:          log.Sugar().Named("reader.agent"),
	}, nil
}

// ReadTables extracts the paper's tables through the model service.
func (r *AgentReader) ReadTables(ctx context.Context, paperPath string) (schema.TablesFile, error) {
	if r.sleep > 0 {
		select {
		case <-time.After(r.sleep):
		case <-ctx.Done():
			return schema.TablesFile{}, ctx.Err()
		}
	}

	texts, err := pageTexts(paperPath)
	if err != nil {
		return schema.TablesFile{}, err
	}
	pages := make([]ai.PageText, 0, len(texts))
	for i, text := range texts {
		pages = append(pages, ai.PageText{Page: i + 1, Text: text})
	}

	r.log.Debugw("processing paper", "paper", paperPath, "model", r.client.Model, "schema", r.columnSchema)
	file, err := r.client.ExtractTables(ctx, pages, r.columnSchema)
	if err != nil {
		return schema.TablesFile{}, err
	}

	if file.Metadata == nil {
		file.Metadata = &schema.Metadata{}
	}
	file.Metadata.Filename = filepath.Base(paperPath)
	return file, nil
}
