package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"

	"go.uber.org/zap"
)

// 启动模式，可用逗号组合，例如 -mode api,scheduler
const (
	ModeAll       = "all"
	ModeAPI       = "api"
	ModeWorker    = "worker"
	ModeScheduler = "scheduler"
)

// Components 当前进程要运行的组件
// 定时调度在整个集群只应运行一份，worker 可以水平扩容
type Components struct {
	API       bool
	Worker    bool
	Scheduler bool
}

// ParseComponents 解析 -mode 参数，空值等同 all
func ParseComponents(mode string) (Components, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = ModeAll
	}
	var c Components
	for _, part := range strings.Split(mode, ",") {
		switch strings.TrimSpace(part) {
		case ModeAll:
			c = Components{API: true, Worker: true, Scheduler: true}
		case ModeAPI:
			c.API = true
		case ModeWorker:
			c.Worker = true
		case ModeScheduler:
			c.Scheduler = true
		case "":
		default:
			return Components{}, fmt.Errorf("app: unknown mode %q", part)
		}
	}
	if c.Empty() {
		return Components{}, fmt.Errorf("app: mode %q selects no component", mode)
	}
	return c, nil
}

// Empty 未选择任何组件
func (c Components) Empty() bool {
	return !c.API && !c.Worker && !c.Scheduler
}

func (c Components) String() string {
	names := make([]string, 0, 3)
	if c.API {
		names = append(names, ModeAPI)
	}
	if c.Worker {
		names = append(names, ModeWorker)
	}
	if c.Scheduler {
		names = append(names, ModeScheduler)
	}
	return strings.Join(names, ",")
}

// Options 应用启动选项
type Options struct {
	Config  *config.Config
	Logger  *zap.SugaredLogger
	Signals []os.Signal
	Mode    string
}

// shutdownTimeout 停止各组件的总时限
func (o Options) shutdownTimeout() time.Duration {
	if o.Config != nil && o.Config.Server.ShutdownTimeoutSeconds > 0 {
		return time.Duration(o.Config.Server.ShutdownTimeoutSeconds) * time.Second
	}
	return 10 * time.Second
}
