package exprsearch

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	gorm "gorm.io/gorm"
)

// RunRecord is one search run. Events join against it by RunID.
type RunRecord struct {
	ID       string `gorm:"primaryKey"`
	Driver   string
	Started  time.Time
	Finished time.Time
}

// EventRecord is one observer event flattened to columns. External
// aggregators join on (RunID, Name, NEvals).
type EventRecord struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   string `gorm:"index"`
	Name    string
	Iter    int
	NEvals  int
	Fitness float64
	Expr    string
	Key     string
	Value   string
}

// RunLogConfig mirrors the sqlite connection knobs: Path and Name locate the
// database file and each pragma is appended to the DSN.
type RunLogConfig struct {
	Name          string   `toml:"name"`
	Path          string   `toml:"path"`
	SQLitePragmas []string `toml:"sqlite_pragmas"`
}

// RunLog is an Observer that persists events to sqlite, one row per event:
// parameters, current_best, elapsed_cpu_s, fitness, code, result and
// computeinfo. Verbose1, iteration, population and mcts_tree events are not
// stored. The core never reads it back; it exists for the external
// aggregation and plotting tools.
type RunLog struct {
	NopObserver

	Config *RunLogConfig
	DB     *gorm.DB
	RunID  string

	driver  string
	started time.Time
}

// NewRunLog opens (creating if needed) the run database and registers a new
// run row.
func NewRunLog(config *RunLogConfig, driver string) (*RunLog, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(config.Name) == 0 {
		return nil, fmt.Errorf("Name of database must be defined")
	}

	var dsn strings.Builder
	dsn.WriteString(filepath.Join(config.Path, config.Name))
	for i, prag := range config.SQLitePragmas {
		if i == 0 {
			dsn.WriteRune('?')
		} else {
			dsn.WriteRune('&')
		}
		dsn.WriteString(fmt.Sprintf("_pragma=%s", prag))
	}

	db, err := gorm.Open(sqlite.Open(dsn.String()), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	db = db.Session(&gorm.Session{PrepareStmt: true, CreateBatchSize: 1000})

	if err := db.AutoMigrate(&RunRecord{}, &EventRecord{}); err != nil {
		return nil, err
	}

	rl := &RunLog{
		Config:  config,
		DB:      db,
		RunID:   uuid.NewString(),
		driver:  driver,
		started: time.Now(),
	}
	if err := db.Create(&RunRecord{ID: rl.RunID, Driver: driver, Started: rl.started}).Error; err != nil {
		return nil, fmt.Errorf("failed to register run: %w", err)
	}
	return rl, nil
}

// Shutdown stamps the run finished and closes the raw connection.
func (rl *RunLog) Shutdown() error {
	if err := rl.DB.Model(&RunRecord{}).Where("id = ?", rl.RunID).
		Update("finished", time.Now()).Error; err != nil {
		return err
	}
	sqldb, err := rl.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return sqldb.Close()
}

func (rl *RunLog) create(ev *EventRecord) {
	ev.RunID = rl.RunID
	rl.DB.Create(ev)
}

func (rl *RunLog) CurrentBest(nevals int, fitness float64, expr string, actions []int) {
	rl.create(&EventRecord{Name: "current_best", NEvals: nevals, Fitness: fitness, Expr: expr})
}

func (rl *RunLog) ElapsedCPU(nevals int, seconds float64) {
	rl.create(&EventRecord{Name: "elapsed_cpu_s", NEvals: nevals, Value: fmt.Sprintf("%g", seconds)})
}

func (rl *RunLog) Fitness(iter int, fitness float64) {
	rl.create(&EventRecord{Name: "fitness", Iter: iter, Fitness: fitness})
}

func (rl *RunLog) Code(iter int, code string) {
	rl.create(&EventRecord{Name: "code", Iter: iter, Expr: code})
}

func (rl *RunLog) Result(r *SearchResult) {
	rl.create(&EventRecord{
		Name:    "result",
		Fitness: r.Fitness,
		Expr:    r.ExprStr(),
		Iter:    r.BestAtEval,
		NEvals:  r.TotalEvals,
	})
}

func (rl *RunLog) ComputeInfo(key string, value any) {
	rl.create(&EventRecord{Name: "computeinfo", Key: key, Value: fmt.Sprintf("%v", value)})
}

func (rl *RunLog) Parameter(key string, value any) {
	rl.create(&EventRecord{Name: "parameters", Key: key, Value: fmt.Sprintf("%v", value)})
}
