package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Output receives formatted http exchanges.
type Output interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput writes one file per exchange into a fresh
// `exchanges-*` directory under dir. Nothing already in dir is touched.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	run, err := os.MkdirTemp(dir, "exchanges-")
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: run}, nil
}

// Dir is the directory the exchanges of this output are written to.
func (o FilesystemOutput) Dir() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}

// MemoryOutput keeps exchanges in memory.
type MemoryOutput struct {
	mutex     sync.Mutex
	exchanges map[string]string
}

func (o *MemoryOutput) Write(id string, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.exchanges == nil {
		o.exchanges = map[string]string{}
	}
	o.exchanges[id] = contents
}

func (o *MemoryOutput) Get(id string) (string, bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	contents, ok := o.exchanges[id]
	return contents, ok
}

func (o *MemoryOutput) Len() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return len(o.exchanges)
}

// Instrument writes every completed exchange of the client to output, ids
// are sequential starting from 1. A nil output is a no-op.
func Instrument(client *resty.Client, output Output) {
	if output == nil {
		return
	}
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := atomic.AddUint64(&idcounter, 1)
		output.Write(strconv.FormatUint(id, 10), FormatExchange(res))
		return nil
	})
}
