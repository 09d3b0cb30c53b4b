package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// Prompt text shown when the branch being entered has no saved tabs.
const (
	NoSavedTabsQuestion = "No saved tabs for the branch checked out, bring tabs with you? " +
		"This setting can be configured in settings."
	AnswerYes = "Yes"
	AnswerNo  = "No"
)

// ControllerDeps holds the collaborators of a BranchTransitionController.
type ControllerDeps struct {
	Repository domain.Repository
	Reader     domain.SnapshotReader
	Store      domain.BranchTabStore
	Tabs       domain.TabManager
	Settings   domain.SettingsSource
	Prompt     domain.DecisionPrompt
	Notifier   domain.Notifier
	Logger     Logger

	// NewID generates transition ids. Defaults to uuid.NewString.
	NewID func() string
}

// BranchTransitionController reacts to change notifications of one repository,
// saving the tab layout of the branch being left and restoring the layout of
// the branch being entered.
//
// Handle and Seed are not safe for concurrent use; the Registry serializes them.
// Tracked may be called from any goroutine.
type BranchTransitionController struct {
	repo     domain.Repository
	reader   domain.SnapshotReader
	store    domain.BranchTabStore
	tabs     domain.TabManager
	settings domain.SettingsSource
	prompt   domain.DecisionPrompt
	notifier domain.Notifier
	logger   Logger
	newID    func() string

	// mu guards writes to tracked and known, and reads from outside Handle.
	mu      sync.Mutex
	tracked domain.BranchID
	known   bool
}

// NewBranchTransitionController creates a controller with no tracked branch.
func NewBranchTransitionController(deps ControllerDeps) *BranchTransitionController {
	newID := deps.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &BranchTransitionController{
		repo:     deps.Repository,
		reader:   deps.Reader,
		store:    deps.Store,
		tabs:     deps.Tabs,
		settings: deps.Settings,
		prompt:   deps.Prompt,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		newID:    newID,
	}
}

// Tracked returns the tracked branch and whether one has been observed.
func (c *BranchTransitionController) Tracked() (domain.BranchID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracked, c.known
}

func (c *BranchTransitionController) track(branch domain.BranchID) {
	c.mu.Lock()
	c.tracked = branch
	c.known = true
	c.mu.Unlock()
}

// Seed initializes the tracked branch from the repository's current HEAD.
// A detached HEAD leaves the controller untracked.
func (c *BranchTransitionController) Seed(ctx context.Context) error {
	branch, err := c.repo.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("read current branch of %s: %w", c.repo.Root(), err)
	}
	if branch != "" {
		c.track(branch)
	}
	return nil
}

// Handle processes one change notification. It never returns an error: failures
// are logged, reported to the operator and recorded in the result.
func (c *BranchTransitionController) Handle(ctx context.Context) domain.TransitionResult {
	result := domain.TransitionResult{
		ID:     c.newID(),
		Root:   c.repo.Root(),
		From:   c.tracked,
		Action: domain.ActionNone,
	}

	newBranch, err := c.repo.CurrentBranch(ctx)
	if err != nil {
		result.Err = fmt.Errorf("%w: read current branch: %w", domain.ErrEnvironmentUnavailable, err)
		c.logger.Error(ctx, "failed to read current branch", err, c.fields(result))
		return result
	}
	result.To = newBranch

	if newBranch == "" {
		c.logger.Debug(ctx, "HEAD is detached; ignoring notification", c.fields(result))
		return result
	}

	if !c.known {
		c.track(newBranch)
		result.Action = domain.ActionInitial
		c.logger.Debug(ctx, "first branch observation", c.fields(result))
		return result
	}

	if newBranch == c.tracked {
		return result
	}

	// The tracked branch advances even when the transition is aborted, so a
	// failing store does not make every later notification retry this switch.
	defer c.track(newBranch)

	c.logger.Info(ctx, "branch switch detected", c.fields(result))

	snapshot, err := c.reader.Capture(ctx)
	if err != nil {
		return c.abort(ctx, result, "Could not read open tabs", err)
	}
	if err := c.store.Put(ctx, c.tracked, snapshot); err != nil {
		return c.abort(ctx, result, fmt.Sprintf("Could not save tabs for branch %s", c.tracked), err)
	}
	c.logger.Debug(ctx, "persisted tabs for previous branch", mergeFields(c.fields(result), map[string]interface{}{
		"tabs_count": len(snapshot),
	}))

	existing := c.store.Get(newBranch)
	if len(existing) > 0 {
		return c.restore(ctx, result, existing)
	}

	return c.applyNoSavedPolicy(ctx, result)
}

// applyNoSavedPolicy decides what happens to the open tabs when the branch
// being entered has nothing saved.
func (c *BranchTransitionController) applyNoSavedPolicy(
	ctx context.Context,
	result domain.TransitionResult,
) domain.TransitionResult {
	bring := c.settings.Bool(domain.SettingBringTabsOnNoSavedAssociation, domain.DefaultBringTabsOnNoSavedAssociation)
	ask := c.settings.Bool(domain.SettingShowPromptWhenNoSavedAssociation, domain.DefaultShowPromptWhenNoSavedAssociation)

	if ask {
		result.Decision = c.prompt.Ask(ctx, NoSavedTabsQuestion, AnswerYes, AnswerNo)
		switch result.Decision {
		case domain.DecisionYes:
			bring = true
		case domain.DecisionNo:
			bring = false
		}
	}

	fields := mergeFields(c.fields(result), map[string]interface{}{
		"bring_tabs": bring,
		"prompted":   ask,
		"decision":   result.Decision.String(),
	})

	if bring {
		result.Action = domain.ActionKeptTabs
		c.logger.Info(ctx, "no saved tabs; keeping open tabs", fields)
		return result
	}

	if err := c.tabs.CloseAll(ctx); err != nil {
		return c.abort(ctx, result, "Could not close open tabs", err)
	}
	result.Action = domain.ActionClosedAll
	c.logger.Info(ctx, "no saved tabs; closed open tabs", fields)
	return result
}

// restore closes every open tab and then opens the snapshot entries in order.
// An entry that fails to open is reported on its own and does not stop the rest.
func (c *BranchTransitionController) restore(
	ctx context.Context,
	result domain.TransitionResult,
	snapshot domain.Snapshot,
) domain.TransitionResult {
	if err := c.tabs.CloseAll(ctx); err != nil {
		return c.abort(ctx, result, "Could not close open tabs", err)
	}

	for _, entry := range snapshot {
		if err := c.tabs.Open(ctx, entry.Location, entry.GroupOr(0)); err != nil {
			failure := fmt.Errorf("%w: %s: %w", domain.ErrEntryOpenFailure, entry.Location, err)
			result.Failures = append(result.Failures, failure)
			c.logger.Warn(ctx, "failed to open tab", mergeFields(c.fields(result), map[string]interface{}{
				"location": entry.Location,
				"error":    err.Error(),
			}))
			c.notifier.Error(ctx, "Could not open file: "+entry.Location, err)
			continue
		}
		result.Opened++
	}

	result.Action = domain.ActionRestored
	c.logger.Info(ctx, "restored tabs for branch", mergeFields(c.fields(result), map[string]interface{}{
		"tabs_count":   len(snapshot),
		"opened_count": result.Opened,
		"failed_count": len(result.Failures),
	}))
	return result
}

func (c *BranchTransitionController) abort(
	ctx context.Context,
	result domain.TransitionResult,
	msg string,
	err error,
) domain.TransitionResult {
	result.Action = domain.ActionAborted
	result.Err = err
	c.logger.Error(ctx, "branch transition aborted", err, c.fields(result))
	c.notifier.Error(ctx, msg, err)
	return result
}

func (c *BranchTransitionController) fields(result domain.TransitionResult) map[string]interface{} {
	return map[string]interface{}{
		"transition_id": result.ID,
		"root":          result.Root,
		"from":          string(result.From),
		"to":            string(result.To),
	}
}

func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
