package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const defaultForcedTimeout = 2 * time.Second

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type resource struct {
	name  string
	close Func
}

// Closer закрывает зарегистрированные ресурсы в обратном порядке регистрации (LIFO).
type Closer struct {
	mu            sync.Mutex
	once          sync.Once
	resources     []resource
	forcedTimeout time.Duration
}

// NewCloser создаёт Closer. forcedTimeout ограничивает принудительное закрытие ресурсов,
// до которых не дошла очередь к моменту отмены контекста Close.
func NewCloser(forcedTimeout time.Duration) *Closer {
	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует ресурс. name попадает в текст ошибки закрытия.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, resource{name: name, close: f})
}

// Close закрывает ресурсы по одному в порядке LIFO. Если ctx истёк, оставшиеся ресурсы
// закрываются параллельно с таймаутом forcedTimeout. Повторные вызовы ничего не делают.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		resources := c.resources
		c.mu.Unlock()

		remaining, errs := c.closeInOrder(ctx, resources)
		if len(remaining) == 0 {
			err = errors.Join(errs...)
			return
		}

		errs = append(errs, c.forceClose(remaining)...)
		err = fmt.Errorf("shutdown interrupted after %d/%d resources", len(resources)-len(remaining), len(resources))
		if joined := errors.Join(errs...); joined != nil {
			err = fmt.Errorf("%w: %w", err, joined)
		}
	})

	return err
}

// closeInOrder возвращает ресурсы, до которых не дошла очередь из-за отмены ctx.
// Ресурс, закрывавшийся в момент отмены, тоже считается незакрытым.
func (c *Closer) closeInOrder(ctx context.Context, resources []resource) ([]resource, []error) {
	var errs []error
	for i := len(resources) - 1; i >= 0; i-- {
		r := resources[i]
		done := make(chan error, 1)
		go func() { done <- r.close(ctx) }()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
			}
		case <-ctx.Done():
			return resources[:i+1], errs
		}
	}

	return nil, errs
}

func (c *Closer) forceClose(resources []resource) []error {
	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, r := range resources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.close(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s (forced): %w", r.name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return errs
}
