package application

import (
	"io"
	"log/slog"
	"sort"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

// Collator merges per-node output streams into a single sequence ordered by
// non-decreasing timestamp, using only information inferable from the raw
// text. It assumes each source's own lines arrive in non-decreasing time
// order, which holds for well-behaved commands such as tailing a log.
type Collator struct {
	logger *slog.Logger
}

func NewCollator(logger *slog.Logger) *Collator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Collator{logger: logger}
}

// collateSource is the per-source merge state: the live stream plus the
// carry-forward timestamp context. The collator goroutine owns all of them
// exclusively; nothing else reads or writes the contexts.
type collateSource struct {
	lines <-chan domain.OutputLine
	node  domain.NodeID
	last  domain.Timestamp
	done  bool
}

// stamp turns a raw line into a collated record. Lines that open with a
// recognizable timestamp update the source's context and are rewritten as
// timestamp+node+rest; anything else inherits the context's current timestamp
// and keeps its text unchanged.
func (s *collateSource) stamp(line domain.OutputLine) domain.CollatedRecord {
	if ts, rest, ok := extractTimestamp(line.Text); ok {
		s.last = ts
		return domain.CollatedRecord{Time: ts, Node: line.Node, Text: rest}
	}

	return domain.CollatedRecord{Time: s.last, Node: line.Node, Text: line.Text}
}

// Collate starts the k-way streaming merge and returns its output channel.
// The channel closes once every source stream is drained. Memory is bounded
// by one pending record per active source.
func (c *Collator) Collate(streams []SourceStream) <-chan domain.CollatedRecord {
	out := make(chan domain.CollatedRecord)
	go c.merge(streams, out)
	return out
}

type headItem struct {
	record domain.CollatedRecord
	source int
}

func (c *Collator) merge(streams []SourceStream, out chan<- domain.CollatedRecord) {
	defer close(out)

	sources := make([]*collateSource, len(streams))
	for i, stream := range streams {
		sources[i] = &collateSource{lines: stream.Lines, node: stream.Node.ID()}
	}

	// At most one pending record per active source, kept sorted ascending.
	heads := make([]headItem, 0, len(sources))
	for i := range sources {
		heads = c.pull(sources, heads, i)
	}

	for len(heads) > 0 {
		next := heads[0]
		heads = heads[1:]
		out <- next.record

		// Refill from the source we just emitted from before picking again,
		// so no source ever falls more than one record behind the merge.
		heads = c.pull(sources, heads, next.source)
	}
}

// pull receives the next line from source i and inserts it into heads in
// sorted position. An exhausted source is marked done and drops out of the
// merge.
func (c *Collator) pull(sources []*collateSource, heads []headItem, i int) []headItem {
	src := sources[i]
	if src.done {
		return heads
	}

	line, ok := <-src.lines
	if !ok {
		src.done = true
		c.logger.Debug("source exhausted", "node", src.node)
		return heads
	}

	item := headItem{record: src.stamp(line), source: i}
	at := sort.Search(len(heads), func(j int) bool {
		return recordLess(item.record, heads[j].record)
	})

	heads = append(heads, headItem{})
	copy(heads[at+1:], heads[at:])
	heads[at] = item
	return heads
}

// recordLess orders pending records by timestamp, undefined last. Equal
// timestamps tie-break by source identifier so the merge stays deterministic;
// arrival order within one source is preserved by construction since a source
// has at most one pending record.
func recordLess(a, b domain.CollatedRecord) bool {
	if a.Time.Before(b.Time) {
		return true
	}
	if b.Time.Before(a.Time) {
		return false
	}
	return a.Node < b.Node
}
