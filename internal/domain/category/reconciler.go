package category

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Result contains the counters of one reconciliation pass.
type Result struct {
	Created int // new rows inserted
	Linked  int // existing rows whose NULL parent was filled in
	Skipped int // subtrees dropped because the node name was unresolvable
}

// Reconciler merges a configured category tree into the flat categories
// table. Reconciliation is idempotent: a second pass over identical input
// performs zero writes.
//
// Parent linkage is first-write-wins. When the same name shows up in two
// branches of the same type, the first occurrence in traversal order
// establishes the row and its parent; later occurrences reuse the row and
// never reparent it. That means a category belongs to whichever branch
// reconciled it first, which can surprise users who move categories around
// in the config. Intentional: an established hierarchy edge is never
// overwritten.
type Reconciler struct {
	repo Repository
}

// NewReconciler creates a new category tree reconciler
func NewReconciler(repo Repository) *Reconciler {
	return &Reconciler{repo: repo}
}

// Reconcile ensures every node of the tree exists with correct parent
// linkage. Sibling nodes are processed in input order.
func (r *Reconciler) Reconcile(ctx context.Context, typ Type, nodes []Node) (*Result, error) {
	if !typ.IsValid() {
		return nil, ErrInvalidType
	}

	res := &Result{}
	for i := range nodes {
		if err := r.reconcileNode(ctx, typ, &nodes[i], nil, res); err != nil {
			return nil, err
		}
	}

	log.Printf("Category reconciliation (%s) done: created=%d, linked=%d, skipped=%d",
		typ, res.Created, res.Linked, res.Skipped)

	return res, nil
}

// reconcileNode handles one node and recurses into its children with the
// resolved id as the new parent.
func (r *Reconciler) reconcileNode(ctx context.Context, typ Type, node *Node, parentID *int64, res *Result) error {
	name := strings.TrimSpace(node.Name)
	if name == "" {
		// Without a name there is nothing to attach the children to;
		// drop the whole subtree.
		log.Printf("Skipping category entry without a name (%s tree)", typ)
		res.Skipped++
		return nil
	}

	existing, err := r.repo.FindByNameAndType(ctx, name, typ)
	if err != nil {
		return fmt.Errorf("failed to look up category %q: %w", name, err)
	}

	var id int64
	if existing != nil {
		id = existing.ID
		if existing.ParentID == nil && parentID != nil {
			linked, err := r.repo.SetParent(ctx, id, *parentID)
			if err != nil {
				return fmt.Errorf("failed to link category %q: %w", name, err)
			}
			if linked {
				res.Linked++
			}
		}
	} else {
		created, err := r.repo.Create(ctx, name, typ, parentID)
		if err != nil {
			return fmt.Errorf("failed to create category %q: %w", name, err)
		}
		id = created.ID
		res.Created++
	}

	for i := range node.Children {
		if err := r.reconcileNode(ctx, typ, &node.Children[i], &id, res); err != nil {
			return err
		}
	}

	return nil
}
