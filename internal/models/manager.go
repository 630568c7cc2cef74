package models

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
}

// Manager управляет моделями.
type Manager struct {
	modelsDir string
	client    *http.Client
	mu        sync.Mutex
}

// NewManager создаёт менеджер моделей в каталоге dir.
// Пустой dir - каталог models/ рядом с бинарником.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
		}
		execPath, err = filepath.EvalSymlinks(execPath)
		if err != nil {
			return nil, fmt.Errorf("не удалось разрешить симлинки: %w", err)
		}
		dir = filepath.Join(filepath.Dir(execPath), "models")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию моделей: %w", err)
	}

	return &Manager{modelsDir: dir, client: http.DefaultClient}, nil
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// GetModelPath возвращает полный путь к модели.
func (m *Manager) GetModelPath(info ModelInfo) string {
	return filepath.Join(m.modelsDir, info.Dir)
}

// IsDownloaded проверяет, скачана ли модель.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	stat, err := os.Stat(m.GetModelPath(info))
	return err == nil && stat.IsDir()
}

// Download скачивает и распаковывает модель.
// progress канал получает обновления о прогрессе (можно nil), отправка не блокирует.
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsDownloaded(info) {
		report(progress, Progress{ModelID: info.ID, Downloaded: info.Size, Total: info.Size, Done: true})
		return nil
	}

	// Скачиваем во временный файл
	tmpZip, err := os.CreateTemp(m.modelsDir, "model-*.zip")
	if err != nil {
		return err
	}
	tmpPath := tmpZip.Name()
	defer os.Remove(tmpPath)

	total, err := m.fetch(ctx, info, tmpZip, progress)
	tmpZip.Close()
	if err != nil {
		return err
	}

	if err := unzip(tmpPath, m.modelsDir); err != nil {
		return fmt.Errorf("ошибка распаковки: %w", err)
	}
	if !m.IsDownloaded(info) {
		return fmt.Errorf("архив %s не содержит каталог %s", info.URL, info.Dir)
	}

	report(progress, Progress{ModelID: info.ID, Downloaded: total, Total: total, Done: true})
	return nil
}

func (m *Manager) fetch(ctx context.Context, info ModelInfo, w io.Writer, progress chan<- Progress) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ошибка скачивания: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return 0, werr
			}
			downloaded += int64(n)
			report(progress, Progress{ModelID: info.ID, Downloaded: downloaded, Total: total})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	return downloaded, nil
}

func report(progress chan<- Progress, p Progress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	default:
	}
}

func unzip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("недопустимый путь в архиве: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}

		outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
	}

	return nil
}

// Delete удаляет модель.
func (m *Manager) Delete(info ModelInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return os.RemoveAll(m.GetModelPath(info))
}
