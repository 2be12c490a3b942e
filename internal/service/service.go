package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"artworks/crawler/internal/client"
	"artworks/crawler/internal/crawler"
	"artworks/crawler/internal/domain"
	"artworks/crawler/internal/domain/task"
	"artworks/crawler/internal/queue"
	"artworks/crawler/internal/repository"
	"artworks/crawler/internal/state"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options tune the dispatcher
type Options struct {
	StartURL     string
	MaxRetries   int
	MinIdleTime  time.Duration
	PollInterval time.Duration

	// RetryBackoff is the delay before the first retry; it doubles on every
	// further attempt up to MaxRetryBackoff.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// A retry task that is not due yet goes back to the queue; the retry worker
// pauses at most this long before reading the next one.
const postponePause = 100 * time.Millisecond

// Service drives the crawl: it fetches the page behind every queued task, runs
// the matching crawl component and queues whatever that component emits.
type Service struct {
	client       client.SiteClient
	queue        queue.Queue
	stateManager state.StateManager
	repository   repository.RecordRepository

	walker    *crawler.Walker
	paginator *crawler.Paginator
	scanner   *crawler.ItemScanner
	extractor *crawler.Extractor

	opts Options
}

func NewService(
	client client.SiteClient,
	queue queue.Queue,
	stateManager state.StateManager,
	repository repository.RecordRepository,
	rules crawler.Rules,
	opts Options,
) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.MinIdleTime <= 0 {
		opts.MinIdleTime = 2 * time.Minute
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 5 * time.Second
	}
	if opts.MaxRetryBackoff < opts.RetryBackoff {
		opts.MaxRetryBackoff = max(opts.RetryBackoff, 10*time.Minute)
	}

	return &Service{
		client:       client,
		queue:        queue,
		stateManager: stateManager,
		repository:   repository,
		walker:       crawler.NewWalker(rules),
		paginator:    crawler.NewPaginator(rules),
		scanner:      crawler.NewItemScanner(rules),
		extractor:    crawler.NewExtractor(rules),
		opts:         opts,
	}
}

// Seed walks the root document. Without it there is no tree to crawl, so a
// failure here is returned to the caller.
func (s *Service) Seed(ctx context.Context) error {
	log.Infof("🌱 Fetching category root %s", s.opts.StartURL)

	root, err := s.client.FetchPage(ctx, s.opts.StartURL)
	if err != nil {
		return fmt.Errorf("failed to fetch category root: %w", err)
	}

	tasks := s.walker.WalkRoot(root)
	if len(tasks) == 0 {
		log.Warnf("⚠️ No target category found on %s", s.opts.StartURL)
	}

	return s.enqueue(ctx, tasks)
}

// Crawl seeds the frontier, then runs workers until every task is done.
func (s *Service) Crawl(ctx context.Context, numWorkers int) error {
	if err := s.Seed(ctx); err != nil {
		return err
	}

	workCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.RunWorkers(workCtx, numWorkers)
	})

	g.Go(func() error {
		defer stopWorkers()
		return s.WaitForExhaustion(gctx)
	})

	return g.Wait()
}

// WaitForExhaustion blocks until no task is waiting or in flight. Follow-up
// tasks are queued before their parent is acked, so an empty frontier means the
// crawl is complete.
func (s *Service) WaitForExhaustion(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pending, err := s.queue.Pending(ctx)
			if err != nil {
				log.Errorf("❌ Failed to read queue size: %v", err)
				continue
			}
			if pending == 0 {
				log.Info("🏁 Task frontier exhausted")
				return nil
			}
			log.Debugf("%d tasks pending", pending)
		}
	}
}

// RunWorkers consumes every task stream until ctx is cancelled.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	var wg sync.WaitGroup

	half := max(1, numWorkers/2)
	s.runWorkersForStream(ctx, &wg, half, task.TypeWalk)
	s.runWorkersForStream(ctx, &wg, half, task.TypePagination)
	s.runWorkersForStream(ctx, &wg, numWorkers, task.TypeListingPage)
	s.runWorkersForStream(ctx, &wg, numWorkers, task.TypeItemPage)
	s.runWorkersForStream(ctx, &wg, 1, task.TypeRetry)

	wg.Wait()
	return nil
}

func (s *Service) runWorkersForStream(ctx context.Context, wg *sync.WaitGroup, numWorkers int, taskType string) {
	streamName := s.queue.StreamName(taskType)
	workerType := strings.TrimSuffix(strings.ToLower(taskType), "task")

	// Auto-claimer for messages abandoned by crashed consumers
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.opts.MinIdleTime)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				consumer := fmt.Sprintf("autoclaimer-%s", workerType)
				claimed, err := s.queue.AutoClaim(ctx, consumer, streamName, s.opts.MinIdleTime)
				if err != nil {
					log.Errorf("❌ Failed to auto-claim messages for %s: %v", streamName, err)
					continue
				}
				if len(claimed) > 0 {
					log.Infof("🔄 Auto-claimed %d messages from %s stream", len(claimed), workerType)
				}
				for _, msg := range claimed {
					if err := s.processMessage(ctx, &msg); err != nil {
						log.Errorf("❌ Failed to process auto-claimed message %s: %v", msg.ID, err)
					}
				}
			}
		}
	}()

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consumer := fmt.Sprintf("%s-worker-%d", workerType, workerID)
			log.Debugf("🚀 Starting %s worker %d as consumer %s", workerType, workerID, consumer)
			for {
				if ctx.Err() != nil {
					log.Debugf("🛑 %s worker %d stopping", workerType, workerID)
					return
				}

				msg, err := s.queue.GetTask(ctx, consumer, streamName)
				if err != nil {
					if ctx.Err() == nil {
						log.Errorf("❌ Failed to get task from %s: %v", streamName, err)
					}
					continue
				}
				if msg == nil {
					continue
				}

				if err := s.processMessage(ctx, msg); err != nil {
					log.Errorf("❌ Failed to process message %s: %v", msg.ID, err)
				}
			}
		}(i + 1)
	}
}

func (s *Service) processMessage(ctx context.Context, msg *queue.Message) error {
	t, err := task.Decode(msg.TaskType, msg.Data)
	if err != nil {
		// Undecodable messages can never succeed; ack them so they do not linger
		_ = s.queue.AckTask(ctx, msg.Stream, msg.ID)
		return fmt.Errorf("failed to decode message %s: %w", msg.ID, err)
	}

	if retry, ok := t.(*task.RetryTask); ok {
		if wait := retry.Wait(time.Now()); wait > 0 {
			return s.postpone(ctx, msg, retry, wait)
		}
		err = s.retry(ctx, retry)
	} else if handleErr := s.handle(ctx, t); handleErr != nil {
		err = s.scheduleRetry(ctx, t, 0, handleErr)
	}
	if err != nil {
		// Leave the message pending; the auto-claimer will hand it out again
		return err
	}

	if err := s.queue.AckTask(ctx, msg.Stream, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}
	return nil
}

// handle runs a single task. A returned error means the task may succeed if
// attempted again (fetch, enqueue or save failures); problems with the page
// content itself are reported to the repository instead.
func (s *Service) handle(ctx context.Context, t task.Task) error {
	switch t := t.(type) {
	case *task.WalkTask:
		return s.walk(ctx, t)
	case *task.PaginationTask:
		return s.paginate(ctx, t)
	case *task.ListingPageTask:
		return s.scanListing(ctx, t)
	case *task.ItemPageTask:
		return s.extractItem(ctx, t)
	default:
		return fmt.Errorf("unexpected task type: %s", t.TaskType())
	}
}

func (s *Service) walk(ctx context.Context, t *task.WalkTask) error {
	page, err := s.client.FetchPage(ctx, t.CategoryURL)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, s.walker.WalkCategory(page, t.Trail))
}

func (s *Service) paginate(ctx context.Context, t *task.PaginationTask) error {
	page, err := s.client.FetchPage(ctx, t.CategoryURL)
	if err != nil {
		return err
	}

	pages, err := s.paginator.Paginate(page, t)
	if errors.Is(err, crawler.ErrMalformedCount) {
		log.Warnf("⚠️ Skipping category %s: %v", t.CategoryURL, err)
		return s.repository.SaveFailure(ctx, &domain.ItemFailure{
			URL:   t.CategoryURL,
			Trail: t.Trail,
			Stage: domain.FailureStagePagination,
			Error: err.Error(),
		})
	}
	if err != nil {
		return err
	}

	return s.enqueue(ctx, pages)
}

func (s *Service) scanListing(ctx context.Context, t *task.ListingPageTask) error {
	page, err := s.client.FetchPage(ctx, t.PageURL)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, s.scanner.Scan(page, t.Trail))
}

func (s *Service) extractItem(ctx context.Context, t *task.ItemPageTask) error {
	page, err := s.client.FetchPage(ctx, t.ItemURL)
	if err != nil {
		return err
	}

	record, err := s.extractor.Extract(page, t.Trail)
	if err != nil {
		log.Warnf("⚠️ Could not extract %s: %v", t.ItemURL, err)
		return s.repository.SaveFailure(ctx, &domain.ItemFailure{
			URL:   t.ItemURL,
			Trail: t.Trail,
			Stage: domain.FailureStageExtract,
			Error: err.Error(),
		})
	}

	if err := s.repository.SaveRecord(ctx, record); err != nil {
		return err
	}

	log.Debugf("💾 Saved %q (%s)", record.Title, strings.Join(record.Trail, " > "))
	return nil
}

// postpone puts a retry task that is not due yet back at the end of the retry
// stream. The copy is queued before the original is acked so the frontier never
// looks empty while a retry is waiting.
func (s *Service) postpone(ctx context.Context, msg *queue.Message, retryTask *task.RetryTask, wait time.Duration) error {
	if _, err := s.queue.AddTask(ctx, retryTask); err != nil {
		return fmt.Errorf("failed to postpone retry task: %w", err)
	}
	if err := s.queue.AckTask(ctx, msg.Stream, msg.ID); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
	}

	pause := time.NewTimer(min(wait, postponePause))
	defer pause.Stop()
	select {
	case <-ctx.Done():
	case <-pause.C:
	}
	return nil
}

func (s *Service) retry(ctx context.Context, retryTask *task.RetryTask) error {
	inner, err := retryTask.Inner()
	if err != nil {
		log.Errorf("❌ Dropping undecodable retry task: %v", err)
		return nil
	}

	attempt := retryTask.RetryCount + 1
	log.Infof("🔄 Retrying %s (attempt %d)", inner.TaskType(), attempt)

	if err := s.handle(ctx, inner); err != nil {
		return s.scheduleRetry(ctx, inner, attempt, err)
	}
	return nil
}

// scheduleRetry queues t again unless it has used up its attempts, in which
// case the branch is dropped. Siblings are unaffected either way.
func (s *Service) scheduleRetry(ctx context.Context, t task.Task, retryCount int, cause error) error {
	if ctx.Err() != nil {
		return cause
	}

	if retryCount >= s.opts.MaxRetries {
		log.Errorf("❌ Giving up on %s after %d retries: %v", t.TaskType(), retryCount, cause)
		return s.drop(ctx, t, cause)
	}

	delay := s.backoff(retryCount)
	var blocked interface{ RetryAfter() time.Duration }
	if errors.As(cause, &blocked) {
		delay = max(delay, blocked.RetryAfter())
	}

	retryTask, err := task.NewRetryTask(t, retryCount, cause, time.Now().Add(delay))
	if err != nil {
		return err
	}
	if _, err := s.queue.AddTask(ctx, retryTask); err != nil {
		return fmt.Errorf("failed to add retry task: %w", err)
	}

	log.Warnf("🔄 Added %s to retry queue in %v due to error: %v", t.TaskType(), delay.Round(time.Millisecond), cause)
	return nil
}

// backoff doubles the base delay for every attempt already made.
func (s *Service) backoff(retryCount int) time.Duration {
	delay := s.opts.RetryBackoff
	for i := 0; i < retryCount && delay < s.opts.MaxRetryBackoff; i++ {
		delay *= 2
	}
	return min(delay, s.opts.MaxRetryBackoff)
}

// drop abandons a branch whose fetch kept failing. The failure is reported and
// the task's URL is forgotten so a resumed crawl schedules it again.
func (s *Service) drop(ctx context.Context, t task.Task, cause error) error {
	if d, ok := t.(task.Deduplicated); ok {
		if err := s.stateManager.Forget(ctx, d.DedupKey()); err != nil {
			return err
		}
	}

	url, trail := taskTarget(t)
	return s.repository.SaveFailure(ctx, &domain.ItemFailure{
		URL:   url,
		Trail: trail,
		Stage: domain.FailureStageFetch,
		Error: fmt.Sprintf("%s: %v", t.TaskType(), cause),
	})
}

func taskTarget(t task.Task) (string, domain.Trail) {
	switch t := t.(type) {
	case *task.WalkTask:
		return t.CategoryURL, t.Trail
	case *task.PaginationTask:
		return t.CategoryURL, t.Trail
	case *task.ListingPageTask:
		return t.PageURL, t.Trail
	case *task.ItemPageTask:
		return t.ItemURL, t.Trail
	default:
		return "", nil
	}
}

// enqueue adds tasks to the queue, dropping walk and item tasks whose URL was
// already scheduled during this crawl.
func (s *Service) enqueue(ctx context.Context, tasks []task.Task) error {
	for _, t := range tasks {
		if d, ok := t.(task.Deduplicated); ok {
			first, err := s.stateManager.MarkVisited(ctx, d.DedupKey())
			if err != nil {
				return err
			}
			if !first {
				log.Debugf("Skipping already scheduled %s", d.DedupKey())
				continue
			}
		}

		if _, err := s.queue.AddTask(ctx, t); err != nil {
			return fmt.Errorf("failed to add %s: %w", t.TaskType(), err)
		}
	}
	return nil
}
