package utils

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomPolicy 随机决策来源
// 所有随机行为（生成概率、鲁莽司机、车型、紧急车辆类型）都通过它获取，测试时可替换为确定性实现
type RandomPolicy interface {
	// Chance 以概率 p 返回 true
	Chance(p float64) bool
	// IntN 返回 [0, n) 内的随机整数
	IntN(n int) int
	// Pick 按权重返回索引
	Pick(weights []float64) int
	// Float64 返回 [0, 1) 内的随机数
	Float64() float64
}

// RandSource 基于可设种子的随机源的随机策略，可并发使用
type RandSource struct {
	mu  sync.Mutex
	src rand.Source
	rng *rand.Rand
}

// NewRandSource 创建随机策略，seed 为 0 时使用当前时间
func NewRandSource(seed uint64) *RandSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(seed)
	return &RandSource{
		src: src,
		rng: rand.New(src),
	}
}

// Chance 以概率 p 返回 true
func (r *RandSource) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return distuv.Bernoulli{P: p, Src: r.src}.Rand() == 1
}

// IntN 返回 [0, n) 内的随机整数
func (r *RandSource) IntN(n int) int {
	if n <= 0 {
		panic("n must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// Pick 按权重返回索引，权重全为 0 时返回 0
func (r *RandSource) Pick(weights []float64) int {
	if len(weights) == 0 {
		panic("weights must not be empty")
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return int(distuv.NewCategorical(weights, r.src).Rand())
}

// Float64 返回 [0, 1) 内的随机数
func (r *RandSource) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// RangeUint8 在 [lo, hi) 内取随机值，hi <= lo 时返回 lo
func RangeUint8(policy RandomPolicy, lo, hi uint8) uint8 {
	if hi <= lo {
		return lo
	}
	return lo + uint8(policy.IntN(int(hi-lo)))
}
