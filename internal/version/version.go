// Package version хранит сведения о сборке, подставляемые через -ldflags:
//
//	go build -ldflags "-X github.com/vladislavdragonenkov/orderdesk/internal/version.version=v1.2.0"
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion отдаёт версию для health-ответов.
func GetVersion() string { return version }

// String: строка для стартового лога и флага -version.
func String() string {
	return fmt.Sprintf("orderdesk version=%s commit=%s date=%s", version, commit, date)
}
