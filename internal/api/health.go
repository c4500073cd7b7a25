package api

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"

	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/mylxsw/short-link/internal/link"
	"github.com/shirou/gopsutil/v3/host"
)

type HealthCheck struct {
	svc *link.Service
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Hostname  string            `json:"hostname"`
	OS        string            `json:"os"`
	Arch      string            `json:"arch"`
	Platform  string            `json:"platform,omitempty"`
	Uptime    uint64            `json:"uptime,omitempty"`
	Allocator *allocator.Status `json:"allocator,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func inspectHost() HealthStatus {
	status := HealthStatus{
		Status: "UP",
		OS:     runtime.GOOS,
		Arch:   runtime.GOARCH,
	}

	status.Hostname, _ = os.Hostname()
	if hostStat, err := host.Info(); err == nil {
		status.Platform = hostStat.Platform + " " + hostStat.PlatformVersion
		status.Uptime = hostStat.Uptime
	}

	return status
}

func (h HealthCheck) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	status := inspectHost()
	code := http.StatusOK

	allocStatus, err := h.svc.Status(req.Context())
	if err != nil {
		status.Status = "DOWN"
		status.Error = err.Error()
		code = http.StatusServiceUnavailable
	} else {
		status.Allocator = &allocStatus
	}

	writer.Header().Add("Content-Type", "application/json")
	writer.WriteHeader(code)
	_ = json.NewEncoder(writer).Encode(status)
}
