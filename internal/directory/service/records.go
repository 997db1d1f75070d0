package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel/trace"

	"furgon/internal/audit"
	"furgon/internal/directory/models"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
)

// entity describes one collection to the shared pipeline: where it lives,
// which JSON field is the key, how to canonicalize keys, how to validate a
// record, and how to stamp timestamps.
type entity[E models.Record] struct {
	collection string
	// keyJSON is the record's key field name in patches; updates that try to
	// change it fail with ImmutableKey.
	keyJSON string
	// canonKey validates and canonicalizes a raw key.
	canonKey func(raw string) (string, error)
	// prepare validates rec in place: canonicalizes key fields, resolves
	// references, derives the institution. prevKey is empty on create and
	// the record's own key on update, so uniqueness checks can exclude the
	// record being edited.
	prepare func(ctx context.Context, s *Service, rec *E, prevKey string) error
	// beforeDelete vetoes deletions that would break integrity. Optional.
	beforeDelete func(ctx context.Context, s *Service, rec *E) error
	stampCreate  func(rec *E, now time.Time)
	stampUpdate  func(rec *E, now time.Time)
	// touchesNames: mutations to this collection invalidate the institution
	// name cache.
	touchesNames bool
}

func decode[E any](doc []byte) (E, error) {
	var rec E
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, dErrors.Wrap(err, dErrors.CodeInternal, "decode stored record")
	}
	return rec, nil
}

// create validates and persists a new record.
//
// The uniqueness check is advisory: the document store offers no conditional
// create, so two concurrent creates with the same key can both observe "no
// existing record" and the later Put wins. Accepted race; see DESIGN.md.
func create[E models.Record](ctx context.Context, s *Service, def entity[E], sc scope.Scope, rec E) (E, error) {
	var zero E
	ctx, span := s.tracer.Start(ctx, "directory."+def.collection+".create")
	defer span.End()

	if err := def.prepare(ctx, s, &rec, ""); err != nil {
		return zero, s.reject(span, def.collection, "create", err)
	}
	if !sc.CanMutate(rec.InstitutionRef()) {
		return zero, s.denyScope(span, def.collection, "create")
	}

	key := rec.Key()
	if _, err := s.docs.Get(ctx, def.collection, key); err == nil {
		return zero, s.reject(span, def.collection, "create",
			dErrors.Newf(dErrors.CodeDuplicateKey, "%s %s already exists", def.collection, key))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return zero, s.reject(span, def.collection, "create", translateStore(err, "uniqueness check"))
	}

	def.stampCreate(&rec, time.Now().UTC())
	doc, err := json.Marshal(rec)
	if err != nil {
		return zero, s.reject(span, def.collection, "create", dErrors.Wrap(err, dErrors.CodeInternal, "encode record"))
	}
	if err := s.docs.Put(ctx, def.collection, key, doc); err != nil {
		return zero, s.reject(span, def.collection, "create", translateStore(err, "persist record"))
	}

	s.recordMutation(ctx, sc, def.collection, def.touchesNames, audit.ActionCreate, key)
	return rec, nil
}

func get[E models.Record](ctx context.Context, s *Service, def entity[E], sc scope.Scope, rawKey string) (E, error) {
	var zero E
	key, err := def.canonKey(rawKey)
	if err != nil {
		return zero, err
	}
	doc, err := s.docs.Get(ctx, def.collection, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return zero, dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", def.collection, key)
	}
	if err != nil {
		return zero, translateStore(err, "load record")
	}
	rec, err := decode[E](doc)
	if err != nil {
		return zero, err
	}
	// Out-of-scope records answer NotFound, not ScopeViolation: a restricted
	// actor cannot probe other institutions' key space.
	if !sc.IsSuperAdmin && rec.InstitutionRef() != sc.InstitutionID {
		return zero, dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", def.collection, key)
	}
	return rec, nil
}

func list[E models.Record](ctx context.Context, s *Service, def entity[E], sc scope.Scope, institutionFilter string) ([]E, error) {
	docs, err := s.docs.Scan(ctx, def.collection)
	if err != nil {
		return nil, translateStore(err, "scan collection")
	}
	recs := make([]E, 0, len(docs))
	for _, doc := range docs {
		rec, err := decode[E](doc)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	recs = scope.Visible(sc, recs, institutionFilter)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Key() < recs[j].Key() })
	return recs, nil
}

// update merges patch onto the stored record. Fields absent from patch stay
// untouched; a JSON null clears a field. The record key is immutable.
func update[E models.Record](ctx context.Context, s *Service, def entity[E], sc scope.Scope, rawKey string, patch map[string]any) (E, error) {
	var zero E
	ctx, span := s.tracer.Start(ctx, "directory."+def.collection+".update")
	defer span.End()

	key, err := def.canonKey(rawKey)
	if err != nil {
		return zero, s.reject(span, def.collection, "update", err)
	}
	doc, err := s.docs.Get(ctx, def.collection, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return zero, s.reject(span, def.collection, "update",
			dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", def.collection, key))
	}
	if err != nil {
		return zero, s.reject(span, def.collection, "update", translateStore(err, "load record"))
	}
	existing, err := decode[E](doc)
	if err != nil {
		return zero, s.reject(span, def.collection, "update", err)
	}
	if !sc.CanMutate(existing.InstitutionRef()) {
		return zero, s.denyScope(span, def.collection, "update")
	}

	if raw, ok := patch[def.keyJSON]; ok {
		patched, _ := raw.(string)
		canon, err := def.canonKey(patched)
		if err != nil || canon != key {
			return zero, s.reject(span, def.collection, "update",
				dErrors.Newf(dErrors.CodeImmutableKey, "%s key cannot be changed", def.collection))
		}
	}

	merged, err := mergePatch[E](doc, patch)
	if err != nil {
		return zero, s.reject(span, def.collection, "update", err)
	}
	if err := def.prepare(ctx, s, &merged, key); err != nil {
		return zero, s.reject(span, def.collection, "update", err)
	}
	// Re-check after preparation: a patch (or guardian-derived institution)
	// must not move the record outside the actor's scope.
	if !sc.CanMutate(merged.InstitutionRef()) {
		return zero, s.denyScope(span, def.collection, "update")
	}

	def.stampUpdate(&merged, time.Now().UTC())
	out, err := json.Marshal(merged)
	if err != nil {
		return zero, s.reject(span, def.collection, "update", dErrors.Wrap(err, dErrors.CodeInternal, "encode record"))
	}
	if err := s.docs.Put(ctx, def.collection, key, out); err != nil {
		return zero, s.reject(span, def.collection, "update", translateStore(err, "persist record"))
	}

	// Record first, then reclaim: a crash between the two leaks the old blob
	// but never leaves the record pointing at a deleted one.
	if prev := existing.ImageRef(); prev != "" && prev != merged.ImageRef() {
		if err := s.reclaim(ctx, prev); err != nil {
			return merged, s.reject(span, def.collection, "update", err)
		}
	}

	s.recordMutation(ctx, sc, def.collection, def.touchesNames, audit.ActionUpdate, key)
	return merged, nil
}

func del[E models.Record](ctx context.Context, s *Service, def entity[E], sc scope.Scope, rawKey string) error {
	ctx, span := s.tracer.Start(ctx, "directory."+def.collection+".delete")
	defer span.End()

	key, err := def.canonKey(rawKey)
	if err != nil {
		return s.reject(span, def.collection, "delete", err)
	}
	doc, err := s.docs.Get(ctx, def.collection, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.reject(span, def.collection, "delete",
			dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", def.collection, key))
	}
	if err != nil {
		return s.reject(span, def.collection, "delete", translateStore(err, "load record"))
	}
	rec, err := decode[E](doc)
	if err != nil {
		return s.reject(span, def.collection, "delete", err)
	}
	if !sc.CanMutate(rec.InstitutionRef()) {
		return s.denyScope(span, def.collection, "delete")
	}
	if def.beforeDelete != nil {
		if err := def.beforeDelete(ctx, s, &rec); err != nil {
			return s.reject(span, def.collection, "delete", err)
		}
	}

	if err := s.docs.Delete(ctx, def.collection, key); err != nil {
		return s.reject(span, def.collection, "delete", translateStore(err, "delete record"))
	}
	if img := rec.ImageRef(); img != "" {
		if err := s.reclaim(ctx, img); err != nil {
			// The record is gone; the blob leaked. Reported so operators can
			// reconcile, never retried here.
			return s.reject(span, def.collection, "delete", err)
		}
	}

	s.recordMutation(ctx, sc, def.collection, def.touchesNames, audit.ActionDelete, key)
	return nil
}

// mergePatch overlays patch onto the stored JSON document and decodes the
// result.
func mergePatch[E any](doc []byte, patch map[string]any) (E, error) {
	var zero E
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "decode stored record")
	}
	for k, v := range patch {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "encode merged record")
	}
	var rec E
	if err := json.Unmarshal(merged, &rec); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInvalidInput, "patch does not fit record shape")
	}
	return rec, nil
}

func (s *Service) reclaim(ctx context.Context, ref string) error {
	if s.assets == nil {
		return nil
	}
	if err := s.assets.Reclaim(ctx, ref); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransient, "reclaim previous image")
	}
	if s.metrics != nil {
		s.metrics.BlobsReclaimed.Inc()
	}
	return nil
}

// recordMutation emits the audit event, bumps counters and, when the
// collection feeds the institution name cache, invalidates it. Audit failures
// are logged and swallowed: directory writes never roll back on audit loss.
func (s *Service) recordMutation(ctx context.Context, sc scope.Scope, collection string, touchesNames bool, action audit.Action, key string) {
	if s.metrics != nil {
		s.metrics.Mutations.WithLabelValues(collection, string(action)).Inc()
	}
	if touchesNames {
		s.invalidateNames(ctx)
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, audit.Event{
		Actor:  sc.ActorEmail,
		Action: action,
		Entity: collection,
		Key:    key,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit publish failed",
			"entity", collection, "key", key, "action", action, "error", err)
	}
}

func (s *Service) reject(span trace.Span, collection, op string, err error) error {
	span.RecordError(err)
	if s.metrics != nil {
		s.metrics.MutationFailures.WithLabelValues(collection, op).Inc()
	}
	return err
}

func (s *Service) denyScope(span trace.Span, collection, op string) error {
	err := dErrors.Newf(dErrors.CodeScopeViolation, "scope does not cover this %s", collection)
	span.RecordError(err)
	if s.metrics != nil {
		s.metrics.ScopeDenials.Inc()
		s.metrics.MutationFailures.WithLabelValues(collection, op).Inc()
	}
	return err
}
