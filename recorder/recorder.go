// Package recorder 将模拟遥测数据写入 CSV 文件
package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"crossroadSim/log"
	"crossroadSim/simulator"
)

// 缓存达到该行数时写入文件
const defaultFlushRows = 256

// table 一个 CSV 文件及其待写入的缓存
type table struct {
	filename string
	cache    [][]string
}

func newTable(dir, name, stamp string, header []string) (*table, error) {
	filename := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", name, stamp))
	if err := initializeCSV(filename, header); err != nil {
		return nil, err
	}
	return &table{filename: filename, cache: make([][]string, 0, defaultFlushRows)}, nil
}

func (t *table) add(rows ...[]string) {
	t.cache = append(t.cache, rows...)
}

func (t *table) flush() error {
	if len(t.cache) == 0 {
		return nil
	}
	if err := appendToCSV(t.filename, t.cache); err != nil {
		return err
	}
	t.cache = t.cache[:0]
	return nil
}

// Options 记录器选项
type Options struct {
	Dir       string // 输出目录
	Stamp     string // 文件名时间戳，为空时使用当前时间
	Trace     bool   // 是否记录每次采样的车辆轨迹
	FlushRows int    // 缓存行数阈值
}

// Recorder 遥测记录器
// 作为快照消费者记录系统数据与车辆轨迹，作为观察者记录车辆行程与事故
type Recorder struct {
	simulator.BaseObserver

	mu        sync.Mutex
	system    *table
	vehicles  *table
	accidents *table
	trace     *table // 未启用时为 nil
	flushRows int
	closed    bool

	trips   *tripTracker
	samples int64
}

// New 创建记录器并初始化所有 CSV 文件
func New(opts Options) (*Recorder, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	stamp := opts.Stamp
	if stamp == "" {
		stamp = time.Now().Format("20060102_150405")
	}
	flushRows := opts.FlushRows
	if flushRows <= 0 {
		flushRows = defaultFlushRows
	}

	r := &Recorder{flushRows: flushRows, trips: newTripTracker()}
	var err error
	if r.system, err = newTable(opts.Dir, "system_data", stamp, systemHeader); err != nil {
		return nil, err
	}
	if r.vehicles, err = newTable(opts.Dir, "vehicle_data", stamp, vehicleHeader); err != nil {
		return nil, err
	}
	if r.accidents, err = newTable(opts.Dir, "accident_data", stamp, accidentHeader); err != nil {
		return nil, err
	}
	if opts.Trace {
		if r.trace, err = newTable(opts.Dir, "trace_data", stamp, traceHeader); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{"dir": opts.Dir, "trace": opts.Trace}).Info("recorder initialized")
	return r, nil
}

// Files 返回所有输出文件路径
func (r *Recorder) Files() []string {
	files := []string{r.system.filename, r.vehicles.filename, r.accidents.filename}
	if r.trace != nil {
		files = append(files, r.trace.filename)
	}
	return files
}

// Consume 实现 simulator.SnapshotConsumer
func (r *Recorder) Consume(snap simulator.Snapshot, status simulator.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}

	r.samples++
	r.system.add(systemRow(r.samples, status))
	if r.trace != nil {
		r.trace.add(traceRows(r.samples, snap)...)
	}
	return r.flushIfFull()
}

func (r *Recorder) flushIfFull() error {
	for _, t := range r.tables() {
		if len(t.cache) >= r.flushRows {
			if err := t.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Recorder) tables() []*table {
	tables := []*table{r.system, r.vehicles, r.accidents}
	if r.trace != nil {
		tables = append(tables, r.trace)
	}
	return tables
}

// Flush 将所有缓存写入文件
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushAll()
}

func (r *Recorder) flushAll() error {
	var errs []error
	for _, t := range r.tables() {
		if err := t.flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close 写入剩余缓存，之后的记录被忽略
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	// 仍在场的车辆记为未完成行程
	r.vehicles.add(r.trips.unfinished()...)
	return r.flushAll()
}
