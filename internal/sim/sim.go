// Package sim runs synthetic level-by-level sweeps against a levelq.Queue and
// checks the order in which requests come back.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/davidvella/levelq"
	"github.com/davidvella/levelq/level"
	"github.com/davidvella/levelq/monitoring"
	"github.com/davidvella/levelq/priority"
	"github.com/davidvella/levelq/spill"
	"github.com/davidvella/levelq/spill/filestore"
	"github.com/davidvella/levelq/spill/pebblestore"
	"github.com/davidvella/levelq/stats"
)

var (
	// ErrOrder reports a request pulled on the wrong level or out of order.
	ErrOrder = errors.New("sim: requests out of order")
	// ErrLost reports requests pushed but never pulled.
	ErrLost = errors.New("sim: requests lost")
)

// Request is a unit of sweep work: visit Node on level Lvl.
type Request struct {
	Lvl  level.Level
	Node uint64
}

// Level implements levelq.Element.
func (r Request) Level() level.Level { return r.Lvl }

func lessRequest(a, b Request) bool { return a.Node < b.Node }

// Report summarises a sweep.
type Report struct {
	Visited     int                  `json:"visited"`
	EmptyLevels int                  `json:"empty_levels"`
	Pushed      int                  `json:"pushed"`
	Pulled      int                  `json:"pulled"`
	MaxSize     int                  `json:"max_size"`
	Stats       stats.LevelizedQueue `json:"stats"`
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "levels visited:   %d (%d empty)\n", r.Visited, r.EmptyLevels)
	fmt.Fprintf(&b, "requests:         %d pushed, %d pulled, %d at most queued\n", r.Pushed, r.Pulled, r.MaxSize)
	fmt.Fprintf(&b, "routing:          %d to buckets, %d to overflow\n", r.Stats.PushBucket, r.Stats.PushOverflow)
	fmt.Fprintf(&b, "levels:           %d relabels, %d skipped\n", r.Stats.Relabels, r.Stats.SkippedLevels)
	fmt.Fprintf(&b, "spill:            %d runs, %d elements, %d compactions\n",
		r.Stats.Spill.Spills, r.Stats.Spill.SpilledElements, r.Stats.Spill.Compactions)
	fmt.Fprintf(&b, "max size ratio:   %.3f", r.Stats.MaxSizeRatio())
	return b.String()
}

// Run performs the sweep described by cfg. Every processed request creates
// Fanout requests on the following Span levels until Requests have been
// pushed. The sweep fails if the queue hands out a request on the wrong level
// or out of order.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) (rep *Report, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := priority.ParseMode(cfg.Mode)
	initLevel, _ := cfg.initLevel()
	levelLess, _ := cfg.levelComparator()

	rep = &Report{}
	opts := []levelq.Option{
		levelq.WithLookAhead(cfg.LookAhead),
		levelq.WithMode(mode),
		levelq.WithInitLevel(initLevel),
		levelq.WithLevelComparator(levelLess),
		levelq.WithStats(&rep.Stats),
		levelq.WithLogger(logger),
		levelq.WithMaxRuns(cfg.Spill.MaxRuns),
	}
	if mode == priority.ModeExternal {
		var store spill.Store
		store, err = openStore(cfg.Spill)
		if err != nil {
			return nil, err
		}
		defer func() { err = errors.Join(err, store.Close()) }()
		opts = append(opts, levelq.WithSpillStore(store))
	}

	s := &sweep{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		report: rep,
		logger: monitoring.Component(logger, "sim"),
	}
	s.order = make([]level.Level, cfg.Levels)
	for i := range s.order {
		s.order[i] = level.Level(i)
	}
	if cfg.Order == "descending" {
		for i, j := 0, len(s.order)-1; i < j; i, j = i+1, j-1 {
			s.order[i], s.order[j] = s.order[j], s.order[i]
		}
	}
	s.index = make(map[level.Level]int, len(s.order))
	for i, l := range s.order {
		s.index[l] = i
	}

	q, err := levelq.New(s.sources(), cfg.MemoryBytes, cfg.MaxSize, lessRequest, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, q.Close()) }()
	s.q = q

	s.logger.Info("sweep started",
		"levels", cfg.Levels,
		"files", cfg.Files,
		"look_ahead", cfg.LookAhead,
		"mode", cfg.Mode)
	if err := s.run(ctx, levelLess); err != nil {
		return rep, err
	}
	s.logger.Info("sweep finished",
		"visited", rep.Visited,
		"pushed", rep.Pushed,
		"pulled", rep.Pulled)
	return rep, nil
}

func openStore(cfg SpillConfig) (spill.Store, error) {
	if cfg.Store == "pebble" {
		return pebblestore.Open(&pebblestore.Options{Dir: cfg.Dir, InMemory: cfg.Dir == ""})
	}
	return filestore.New(cfg.Dir, nil)
}

type sweep struct {
	cfg    Config
	q      *levelq.Queue[Request]
	rng    *rand.Rand
	order  []level.Level
	index  map[level.Level]int
	report *Report
	logger *slog.Logger
}

// sources spreads the levels round-robin over cfg.Files level files.
func (s *sweep) sources() []level.Source {
	files := make([]*level.File, s.cfg.Files)
	for i := range files {
		files[i] = level.NewFile()
	}
	for i := len(s.order) - 1; i >= 0; i-- {
		files[i%len(files)].Push(level.Info{Level: s.order[i], Width: 1})
	}

	out := make([]level.Source, len(files))
	for i, f := range files {
		out[i] = f
	}
	return out
}

func (s *sweep) run(ctx context.Context, levelLess level.Comparator) error {
	if s.q.HasCurrentLevel() {
		// The root lives on the current level and is processed right away.
		s.expand(0)
	} else {
		s.push(Request{Lvl: s.order[0]})
	}

	last := s.order[len(s.order)-1]
	for s.q.HasNextLevel() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.cfg.SkipEmpty && levelLess(s.q.NextLevel(), last) {
			s.q.SetupNextLevelUntil(last)
		} else {
			s.q.SetupNextLevel()
		}
		s.report.Visited++

		cur := s.q.CurrentLevel()
		if s.q.EmptyLevel() {
			s.report.EmptyLevels++
			continue
		}

		var prev Request
		for first := true; s.q.CanPull(); first = false {
			r := s.q.Pull()
			s.report.Pulled++
			if r.Lvl != cur {
				return fmt.Errorf("%w: request for level %d pulled on level %d", ErrOrder, r.Lvl, cur)
			}
			if !first && lessRequest(r, prev) {
				return fmt.Errorf("%w: node %d pulled after node %d on level %d", ErrOrder, r.Node, prev.Node, cur)
			}
			prev = r
			s.expand(s.index[cur])
		}
	}

	if s.report.Pushed != s.report.Pulled {
		return fmt.Errorf("%w: %d pushed, %d pulled", ErrLost, s.report.Pushed, s.report.Pulled)
	}
	return nil
}

// expand creates the requests of a node processed on level order[idx].
func (s *sweep) expand(idx int) {
	if idx >= len(s.order)-1 {
		return
	}
	for i := 0; i < s.cfg.Fanout && s.report.Pushed < s.cfg.Requests; i++ {
		j := min(idx+1+s.rng.IntN(s.cfg.Span), len(s.order)-1)
		s.push(Request{Lvl: s.order[j], Node: s.rng.Uint64()})
	}
}

func (s *sweep) push(r Request) {
	s.q.Push(r)
	s.report.Pushed++
	s.report.MaxSize = max(s.report.MaxSize, s.q.Size())
}
