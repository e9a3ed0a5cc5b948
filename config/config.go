package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Config 保存所有配置项的顶级结构
// 所有参数在启动时确定，运行期间不可修改
type Config struct {
	Simulation   SimulationConfig   `json:"simulation"`
	Logging      LoggingConfig      `json:"logging"`
	TrafficLight TrafficLightConfig `json:"trafficLight"`
	Spawn        SpawnConfig        `json:"spawn"`
	Vehicle      VehicleConfig      `json:"vehicle"`
	Intersection IntersectionConfig `json:"intersection"`
	Accident     AccidentConfig     `json:"accident"`
	Recorder     RecorderConfig     `json:"recorder"`
	Server       ServerConfig       `json:"server"`
}

// SimulationConfig 保存模拟相关的配置项
type SimulationConfig struct {
	TickRate           int     `json:"tickRate"`           // 物理引擎每秒帧数
	SamplingIntervalMs int     `json:"samplingIntervalMs"` // 消费端采样间隔（毫秒）
	RunSeconds         float64 `json:"runSeconds"`         // 运行时长，0 表示一直运行
	Seed               uint64  `json:"seed"`               // 随机种子，0 表示使用当前时间
}

// LoggingConfig 保存日志记录相关的配置项
type LoggingConfig struct {
	Level          string `json:"level"`
	Dir            string `json:"dir"`
	StatusInterval int    `json:"statusInterval"` // 每隔多少次采样输出一次状态日志
}

// TrafficLightConfig 保存交通信号灯相关的配置项
type TrafficLightConfig struct {
	GreenSeconds  float64 `json:"greenSeconds"`
	YellowSeconds float64 `json:"yellowSeconds"`
}

// ClassWeights 普通车辆类型的抽样权重
type ClassWeights struct {
	Car   float64 `json:"car"`
	Van   float64 `json:"van"`
	Truck float64 `json:"truck"`
}

// SpawnConfig 保存车辆生成相关的配置项
type SpawnConfig struct {
	IntervalSeconds     float64      `json:"intervalSeconds"`
	Probability         float64      `json:"probability"`         // 每次轮询生成车辆的概率
	RecklessProbability float64      `json:"recklessProbability"` // 新车辆为鲁莽司机的概率
	SpawnGap            float64      `json:"spawnGap"`            // 入口处与同向车辆的最小间距
	EntryZone           float64      `json:"entryZone"`           // 入口区域长度，只检查该区域内的车辆
	ClassWeights        ClassWeights `json:"classWeights"`
}

// ClassValues 按车辆类型区分的数值
type ClassValues struct {
	Car       float64 `json:"car"`
	Van       float64 `json:"van"`
	Truck     float64 `json:"truck"`
	Emergency float64 `json:"emergency"`
}

// VehicleConfig 保存车辆相关的配置项
type VehicleConfig struct {
	Speed           float64     `json:"speed"`
	EmergencySpeed  float64     `json:"emergencySpeed"`
	CollisionRadius ClassValues `json:"collisionRadius"`
	FollowingGap    ClassValues `json:"followingGap"`
}

// Point 二维坐标
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Approach 描述一个注册方向的入口、红绿灯与停止线
type Approach struct {
	Direction      string  `json:"direction"`
	Entry          Point   `json:"entry"`
	EmergencyEntry Point   `json:"emergencyEntry"`
	Light          Point   `json:"light"`
	StopLine       float64 `json:"stopLine"` // 该方向所在轴上的停止线坐标（东西向为 x，南北向为 y）
}

// Bounds 可见区域，车辆离开后被移除
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Contains 判断点是否在可见区域内
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// IntersectionConfig 保存路口几何与通行规则相关的配置项
type IntersectionConfig struct {
	Approaches              []Approach `json:"approaches"`
	ExitMargin              float64    `json:"exitMargin"`              // 越过停止线该距离后视为已驶出路口
	RedApproachMargin       float64    `json:"redApproachMargin"`       // 红灯时在停止线前保留的距离
	RedViolationProbability float64    `json:"redViolationProbability"` // 普通车辆每帧闯红灯的概率
	Bounds                  Bounds     `json:"bounds"`
}

// AccidentConfig 保存事故处理相关的配置项
type AccidentConfig struct {
	DurationSeconds      float64 `json:"durationSeconds"`
	IncidentPoint        Point   `json:"incidentPoint"`
	ArrivalThreshold     float64 `json:"arrivalThreshold"`
	EmergencyProbability float64 `json:"emergencyProbability"` // 紧急车辆为救护车的概率，否则为警车
	EmergencyCount       int     `json:"emergencyCount"`
}

// RecorderConfig 保存遥测数据记录相关的配置项
type RecorderConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir"`
	Trace   bool   `json:"trace"` // 是否记录每次采样的车辆位置
}

// ServerConfig 保存遥测服务相关的配置项
type ServerConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// TickInterval 返回物理引擎的目标帧间隔
func (c SimulationConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// SamplingInterval 返回消费端采样间隔
func (c SimulationConfig) SamplingInterval() time.Duration {
	return time.Duration(c.SamplingIntervalMs) * time.Millisecond
}

// RunDuration 返回运行时长，0 表示不限
func (c SimulationConfig) RunDuration() time.Duration {
	return seconds(c.RunSeconds)
}

// Green 返回绿灯时长
func (c TrafficLightConfig) Green() time.Duration {
	return seconds(c.GreenSeconds)
}

// Yellow 返回黄灯时长
func (c TrafficLightConfig) Yellow() time.Duration {
	return seconds(c.YellowSeconds)
}

// Interval 返回生成器轮询间隔
func (c SpawnConfig) Interval() time.Duration {
	return seconds(c.IntervalSeconds)
}

// Duration 返回事故持续时长
func (c AccidentConfig) Duration() time.Duration {
	return seconds(c.DurationSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate:           120,
			SamplingIntervalMs: 16,
			RunSeconds:         0,
			Seed:               0,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Dir:            "./log",
			StatusInterval: 60,
		},
		TrafficLight: TrafficLightConfig{
			GreenSeconds:  10,
			YellowSeconds: 2,
		},
		Spawn: SpawnConfig{
			IntervalSeconds:     3,
			Probability:         0.8,
			RecklessProbability: 0.1,
			SpawnGap:            60,
			EntryZone:           100,
			ClassWeights:        ClassWeights{Car: 1, Van: 1, Truck: 1},
		},
		Vehicle: VehicleConfig{
			Speed:           40,
			EmergencySpeed:  60,
			CollisionRadius: ClassValues{Car: 15, Van: 20, Truck: 25, Emergency: 15},
			FollowingGap:    ClassValues{Car: 50, Van: 50, Truck: 60, Emergency: 50},
		},
		Intersection: IntersectionConfig{
			Approaches: []Approach{
				{
					Direction:      "east",
					Entry:          Point{X: 0, Y: 326},
					EmergencyEntry: Point{X: 0, Y: 308},
					Light:          Point{X: 270, Y: 300},
					StopLine:       250,
				},
				{
					Direction:      "north",
					Entry:          Point{X: 320, Y: 570},
					EmergencyEntry: Point{X: 335, Y: 570},
					Light:          Point{X: 300, Y: 370},
					StopLine:       360,
				},
			},
			ExitMargin:              30,
			RedApproachMargin:       10,
			RedViolationProbability: 0,
			Bounds:                  Bounds{MinX: -50, MinY: -50, MaxX: 650, MaxY: 650},
		},
		Accident: AccidentConfig{
			DurationSeconds:      10,
			IncidentPoint:        Point{X: 325, Y: 325},
			ArrivalThreshold:     10,
			EmergencyProbability: 0.5,
			EmergencyCount:       2,
		},
		Recorder: RecorderConfig{
			Enabled: true,
			Dir:     "./data",
		},
		Server: ServerConfig{
			Enabled: false,
			Addr:    ":8080",
		},
	}
}

var globalConfig *Config

// LoadConfig 从 JSON 文件加载配置
// 文件中缺省的字段保留默认值
func LoadConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	cfg, err := Parse(data)
	if err != nil {
		return fmt.Errorf("config %s: %w", filename, err)
	}

	globalConfig = cfg
	return nil
}

// Parse 在默认配置之上解析 JSON 数据并校验
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 修正非法的采样参数
	if cfg.Simulation.TickRate <= 0 {
		cfg.Simulation.TickRate = 120
	}
	if cfg.Simulation.SamplingIntervalMs <= 0 {
		cfg.Simulation.SamplingIntervalMs = 16
	}
	if cfg.Logging.StatusInterval <= 0 {
		cfg.Logging.StatusInterval = 60
	}
	if cfg.Accident.EmergencyCount <= 0 {
		cfg.Accident.EmergencyCount = 2
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfig 返回全局配置，未加载时返回默认配置
func GetConfig() *Config {
	if globalConfig == nil {
		globalConfig = Default()
	}
	return globalConfig
}

// Validate 检查配置的合法性
func (c *Config) Validate() error {
	var errs []error

	if c.TrafficLight.GreenSeconds <= 0 || c.TrafficLight.YellowSeconds <= 0 {
		errs = append(errs, errors.New("trafficLight: phase durations must be positive"))
	}
	if c.Spawn.IntervalSeconds <= 0 {
		errs = append(errs, errors.New("spawn: intervalSeconds must be positive"))
	}
	for name, p := range map[string]float64{
		"spawn.probability":                    c.Spawn.Probability,
		"spawn.recklessProbability":            c.Spawn.RecklessProbability,
		"intersection.redViolationProbability": c.Intersection.RedViolationProbability,
		"accident.emergencyProbability":        c.Accident.EmergencyProbability,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 1, got %v", name, p))
		}
	}
	w := c.Spawn.ClassWeights
	if w.Car < 0 || w.Van < 0 || w.Truck < 0 || w.Car+w.Van+w.Truck <= 0 {
		errs = append(errs, errors.New("spawn.classWeights must be non-negative with a positive sum"))
	}
	if c.Vehicle.Speed <= 0 || c.Vehicle.EmergencySpeed <= 0 {
		errs = append(errs, errors.New("vehicle: speeds must be positive"))
	}
	if len(c.Intersection.Approaches) == 0 {
		errs = append(errs, errors.New("intersection: at least one approach is required"))
	}
	seen := make(map[string]struct{}, len(c.Intersection.Approaches))
	for _, a := range c.Intersection.Approaches {
		if _, dup := seen[a.Direction]; dup {
			errs = append(errs, fmt.Errorf("intersection: duplicate approach %q", a.Direction))
		}
		seen[a.Direction] = struct{}{}
	}
	if c.Accident.DurationSeconds <= 0 {
		errs = append(errs, errors.New("accident: durationSeconds must be positive"))
	}
	if c.Accident.ArrivalThreshold <= 0 {
		errs = append(errs, errors.New("accident: arrivalThreshold must be positive"))
	}

	return errors.Join(errs...)
}
