// Package download загружает вложения WordPress на диск с ограничением
// числа одновременных запросов.
package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 10

var ErrHTTPStatus = errors.New("ошибка HTTP при загрузке")

// Job - один файл: откуда и куда.
type Job struct {
	URL  string
	Dest string
}

// Stats - итог загрузки. Ошибки отдельных файлов не прерывают работу.
type Stats struct {
	Downloaded int
	Existing   int
	Failed     int
}

type Downloader struct {
	Fs     afero.Fs
	Client *http.Client
	// Auth - "пользователь:пароль" для HTTP Basic.
	Auth    string
	Workers int
	Logger  *zap.Logger

	jobs []Job
	dest map[string]bool
}

func New(fs afero.Fs, client *http.Client, workers int, logger *zap.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{Fs: fs, Client: client, Workers: workers, Logger: logger, dest: make(map[string]bool)}
}

// Queue добавляет файл в очередь. Повтор того же пути назначения игнорируется.
func (d *Downloader) Queue(url, dest string) {
	if d.dest == nil {
		d.dest = make(map[string]bool)
	}
	if url == "" || d.dest[dest] {
		return
	}
	d.dest[dest] = true
	d.jobs = append(d.jobs, Job{URL: url, Dest: dest})
}

func (d *Downloader) Jobs() []Job { return d.jobs }

// Run загружает очередь. Уже существующие файлы не перезаписываются.
// Ошибку возвращает только отмена контекста.
func (d *Downloader) Run(ctx context.Context) (Stats, error) {
	workers := d.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	var downloaded, existing, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range d.jobs {
		if gctx.Err() != nil {
			break
		}
		job := job
		g.Go(func() error {
			if ok, _ := afero.Exists(d.Fs, job.Dest); ok {
				existing.Add(1)
				return nil
			}
			if err := d.fetch(gctx, job); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				d.Logger.Warn("не удалось загрузить файл", zap.String("url", job.URL), zap.String("dest", job.Dest), zap.Error(err))
				return nil
			}
			downloaded.Add(1)
			d.Logger.Debug("файл загружен", zap.String("url", job.URL), zap.String("dest", job.Dest))
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	stats := Stats{Downloaded: int(downloaded.Load()), Existing: int(existing.Load()), Failed: int(failed.Load())}
	d.Logger.Info("загрузка вложений завершена",
		zap.Int("downloaded", stats.Downloaded), zap.Int("existing", stats.Existing), zap.Int("failed", stats.Failed))
	return stats, err
}

func (d *Downloader) fetch(ctx context.Context, job Job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return err
	}
	if user, pass, ok := strings.Cut(d.Auth, ":"); ok {
		req.SetBasicAuth(user, pass)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}
	if err := afero.WriteReader(d.Fs, job.Dest, resp.Body); err != nil {
		// Недокачанный файл не должен считаться существующим при повторном запуске.
		_ = d.Fs.Remove(job.Dest)
		return err
	}
	return nil
}
