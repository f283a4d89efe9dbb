package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/store/memory"
)

// fakeClock advances by one second on every read so successive mutations
// get strictly increasing timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

type fixture struct {
	kv        *memory.Store
	clock     *fakeClock
	bookmarks *BookmarkRepository
	projects  *ProjectRepository
}

func newFixture(seed bool) *fixture {
	ctx := context.Background()
	kv := memory.NewStore()
	clock := newFakeClock()
	return &fixture{
		kv:    kv,
		clock: clock,
		bookmarks: NewBookmarkRepository(ctx, kv, "bookmarks", logger.Nop(),
			WithClock(clock.Now), WithIDGenerator(sequentialIDs("b")), WithSeed(seed)),
		projects: NewProjectRepository(ctx, kv, "bookmark-projects", logger.Nop(),
			WithClock(clock.Now), WithIDGenerator(sequentialIDs("p")), WithSeed(seed)),
	}
}
