package httpserver

import (
	"net/http"
	"os"
	"runtime"

	"github.com/rs/zerolog/hlog"
	"github.com/shirou/gopsutil/v4/process"
)

type processRes struct {
	PID        int     `json:"pid"`
	Goroutines int     `json:"goroutines"`
	RSSBytes   uint64  `json:"rssBytes,omitempty"`
	VMSBytes   uint64  `json:"vmsBytes,omitempty"`
	CPUPercent float64 `json:"cpuPercent"`
	Threads    int32   `json:"threads,omitempty"`
}

// handleProcess reports resource usage of the server process.
// Fields the platform cannot provide are left out.
func handleProcess(w http.ResponseWriter, r *http.Request) {
	res := processRes{PID: os.Getpid(), Goroutines: runtime.NumGoroutine()}

	p, err := process.NewProcessWithContext(r.Context(), int32(res.PID))
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("inspect process")
		writeJSON(w, http.StatusOK, res)
		return
	}
	if mem, err := p.MemoryInfoWithContext(r.Context()); err == nil {
		res.RSSBytes, res.VMSBytes = mem.RSS, mem.VMS
	}
	if cpu, err := p.CPUPercentWithContext(r.Context()); err == nil {
		res.CPUPercent = cpu
	}
	if n, err := p.NumThreadsWithContext(r.Context()); err == nil {
		res.Threads = n
	}
	writeJSON(w, http.StatusOK, res)
}
