package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "folio"

const (
	NameInteractions     = "interactions_total"
	NameReconcileRepairs = "reconcile_repairs_total"
	LabelKind            = "kind"
	LabelInteraction     = "interaction"
	LabelOutcome         = "outcome"
	LabelWhat            = "what"
)

// Interaction outcomes.
const (
	OutcomeRecorded = "recorded"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeUnlinked = "unlinked"
	OutcomeError    = "error"
)

var Interactions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameInteractions,
		Help:      "Like and view requests by outcome",
		Namespace: Namespace,
	},
	[]string{LabelKind, LabelInteraction, LabelOutcome},
)

var ReconcileRepairs = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameReconcileRepairs,
		Help:      "Counters recounted and back-references relinked by reconciliation",
		Namespace: Namespace,
	},
	[]string{LabelKind, LabelWhat},
)
