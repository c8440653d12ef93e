package install

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tabmirror/backend/internal/domain/approval"
	"github.com/tabmirror/backend/internal/domain/registry"
	"github.com/tabmirror/backend/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// ErrNoPending indicates a complete call with no matching prior begin.
// It is distinct from other install failures so the user sees the
// specific "no matching prior request" message.
var ErrNoPending = errors.New("no matching prior begin-install request")

// Prompt is the payload shown to the user before the install proceeds.
type Prompt struct {
	ApprovalID  string   `json:"approval_id"`
	ItemID      string   `json:"item_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Flow runs the two-phase install. The approval registry is injected,
// never global, so its lifetime matches the server or the test fixture.
type Flow struct {
	approvals *approval.Registry
	packages  *registry.Manager
	log       *logging.Logger
}

// NewFlow creates an install flow.
func NewFlow(approvals *approval.Registry, packages *registry.Manager, log *logging.Logger) *Flow {
	return &Flow{
		approvals: approvals,
		packages:  packages,
		log:       log,
	}
}

// Begin validates the manifest, records a pending approval, and returns
// the prompt payload.
func (f *Flow) Begin(owner approval.Identity, manifest approval.Manifest) (*Prompt, error) {
	if manifest.ItemID == "" {
		return nil, fmt.Errorf("item_id is required")
	}
	if manifest.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	a := &approval.Approval{
		ID:        uuid.NewString(),
		ItemID:    manifest.ItemID,
		Owner:     owner,
		Manifest:  manifest,
		CreatedAt: time.Now(),
	}
	f.approvals.Push(a)

	f.log.Info("install prompt recorded",
		zap.String("item_id", manifest.ItemID),
		zap.String("approval_id", a.ID))

	return &Prompt{
		ApprovalID:  a.ID,
		ItemID:      manifest.ItemID,
		Name:        manifest.Name,
		Permissions: manifest.Permissions,
	}, nil
}

// Complete consumes the pending approval for (owner, itemID) and
// installs the package. The approval is removed even if the install
// fails; the caller must begin again to retry.
func (f *Flow) Complete(owner approval.Identity, itemID string) (*registry.Package, error) {
	a, ok := f.approvals.Pop(owner, itemID)
	if !ok {
		return nil, ErrNoPending
	}

	m := a.Manifest
	pkg := &registry.Package{
		ID:          itemID,
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Permissions: m.Permissions,
		Extra:       m.Extra,
	}

	if err := f.packages.Save(pkg); err != nil {
		return nil, fmt.Errorf("failed to install package %s: %w", itemID, err)
	}

	f.log.Info("package installed",
		zap.String("item_id", itemID),
		zap.String("approval_id", a.ID))

	return pkg, nil
}

// Pending returns the number of live pending approvals.
func (f *Flow) Pending() int {
	return f.approvals.Len()
}
