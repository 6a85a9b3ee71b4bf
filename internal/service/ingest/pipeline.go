package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/profscope/backend/internal/harvest"
	"github.com/zhouzirui/profscope/backend/internal/logging"
	"github.com/zhouzirui/profscope/backend/internal/model/document"
	"github.com/zhouzirui/profscope/backend/internal/model/professor"
	"github.com/zhouzirui/profscope/backend/internal/repository/records"
	"github.com/zhouzirui/profscope/backend/internal/service/sentiment"
	"github.com/zhouzirui/profscope/backend/internal/vectorindex"
)

var ErrURLRequired = errors.New("url is required")

// SuccessMessage is reported when a page has been indexed.
const SuccessMessage = "Document successfully inserted into vector store"

const (
	stepRequest  = "request"
	stepHarvest  = "harvest"
	stepClassify = "classify"
	stepPersist  = "persist"
	stepChunk    = "chunk"
	stepIndex    = "index"
)

// Classifier labels every comment; failures are reported per outcome.
type Classifier interface {
	ClassifyAll(ctx context.Context, comments []string) []sentiment.Outcome
}

// Chunker splits page text into indexable chunks.
type Chunker interface {
	Chunk(url, professorName, body string) []document.Chunk
}

// Result is the outcome of ingesting one URL.
type Result struct {
	Message          string                      `json:"message"`
	AnalyzedComments []professor.AnalyzedComment `json:"analyzedComments"`
	ProfessorNames   []string                    `json:"professorNames"`
	Logs             []string                    `json:"logs"`

	Chunks []document.Chunk `json:"-"`
	Record *professor.Record `json:"-"`
}

// BatchItem is one URL's outcome within IngestAll.
type BatchItem struct {
	URL    string
	Result Result
	Err    error
}

// Pipeline runs harvest, classify, persist, chunk and index for a page. Steps are not
// transactional: a failure after persistence leaves the stored record in place, and a
// retry appends another record.
type Pipeline struct {
	harvester  harvest.Harvester
	classifier Classifier
	records    records.Store
	chunker    Chunker
	index      vectorindex.Index
	timeout    time.Duration
	now        func() time.Time
}

func NewPipeline(
	harvester harvest.Harvester,
	classifier Classifier,
	recordStore records.Store,
	chunker Chunker,
	index vectorindex.Index,
	timeout time.Duration,
) *Pipeline {
	return &Pipeline{
		harvester:  harvester,
		classifier: classifier,
		records:    recordStore,
		chunker:    chunker,
		index:      index,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ingest processes one URL. trail may be nil; when set, it receives every step so
// callers can report it even when an error is returned.
func (p *Pipeline) Ingest(ctx context.Context, url string, trail *Trail) (Result, error) {
	if trail == nil {
		trail = NewTrail(logging.Component("ingest").With().Str("url", url).Logger())
	}
	trail.Add(stepRequest, "Received request to process URL")

	url = strings.TrimSpace(url)
	if url == "" {
		trail.Fail(stepRequest, nil, "No URL provided")
		return Result{Logs: trail.Entries()}, ErrURLRequired
	}

	page, err := p.harvest(ctx, url)
	if err != nil {
		trail.Fail(stepHarvest, err, "Error loading documents from web")
		return Result{Logs: trail.Entries()}, fmt.Errorf("failed to harvest %s: %w", url, err)
	}
	if page.Name != "" {
		trail.Add(stepHarvest, "Extracted professor's name: %s", page.Name)
	} else {
		trail.Add(stepHarvest, "No professor name found on page")
	}
	trail.Add(stepHarvest, "Found %d comments", len(page.Comments))

	analyzed := p.classify(ctx, page.Comments, trail)

	result := Result{
		AnalyzedComments: analyzed,
		ProfessorNames:   []string{},
	}

	if page.Name != "" {
		record := professor.Record{
			ProfessorName:    page.Name,
			URL:              url,
			AnalyzedComments: analyzed,
			Timestamp:        p.now(),
		}
		if err := p.persist(ctx, record); err != nil {
			trail.Fail(stepPersist, err, "Error writing rating record")
			result.Logs = trail.Entries()
			return result, fmt.Errorf("failed to persist record for %s: %w", page.Name, err)
		}
		trail.Add(stepPersist, "Rating record written for %s", page.Name)
		result.ProfessorNames = append(result.ProfessorNames, page.Name)
		result.Record = &record
	} else {
		trail.Add(stepPersist, "Skipping rating record: no professor name")
	}

	chunks := p.chunker.Chunk(url, page.Name, page.BodyText)
	trail.Add(stepChunk, "Split page into %d chunks", len(chunks))

	if err := p.upsert(ctx, chunks); err != nil {
		trail.Fail(stepIndex, err, "Error inserting chunks into vector store")
		result.Logs = trail.Entries()
		return result, fmt.Errorf("failed to index %s: %w", url, err)
	}
	trail.Add(stepIndex, "Documents inserted into vector store")

	result.Message = SuccessMessage
	result.Chunks = chunks
	result.Logs = trail.Entries()
	return result, nil
}

// IngestAll ingests urls one after another. A failing URL never stops the rest.
func (p *Pipeline) IngestAll(ctx context.Context, urls []string) []BatchItem {
	items := make([]BatchItem, 0, len(urls))
	for _, url := range urls {
		res, err := p.Ingest(ctx, url, nil)
		if err != nil {
			log.Error().Err(err).Str("url", url).Msg("ingestion failed")
		}
		items = append(items, BatchItem{URL: url, Result: res, Err: err})
	}
	return items
}

func (p *Pipeline) harvest(ctx context.Context, url string) (harvest.Page, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.harvester.Harvest(ctx, url)
}

// classify stamps every comment with its own capture time, in input order.
func (p *Pipeline) classify(ctx context.Context, comments []string, trail *Trail) []professor.AnalyzedComment {
	analyzed := make([]professor.AnalyzedComment, 0, len(comments))
	for _, outcome := range p.classifier.ClassifyAll(ctx, comments) {
		if outcome.Err != nil {
			trail.Fail(stepClassify, outcome.Err, "Error classifying sentiment for review %q", outcome.Comment)
		} else {
			trail.Add(stepClassify, "Sentiment for review %q: %s", outcome.Comment, outcome.Sentiment)
		}
		analyzed = append(analyzed, professor.AnalyzedComment{
			Comment:   outcome.Comment,
			Sentiment: outcome.Sentiment,
			Date:      p.now(),
		})
	}
	return analyzed
}

func (p *Pipeline) persist(ctx context.Context, record professor.Record) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.records.Add(ctx, record)
}

func (p *Pipeline) upsert(ctx context.Context, chunks []document.Chunk) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.index.Upsert(ctx, chunks)
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
