package catalog

import (
	"testing"

	"github.com/dkorbel/svx2pdf/internal/selectors"
)

func okSnapshot() Snapshot {
	return Snapshot{
		HTTPStatus: 200,
		FinalURL:   "https://univ.scholarvox.com/catalog/book/docid/88442255",
	}
}

func TestClassify_DecisionOrder(t *testing.T) {
	cfg := selectors.Default()

	tests := []struct {
		name string
		snap func() Snapshot
		want Status
	}{
		{
			name: "navigation failure",
			snap: func() Snapshot { return Snapshot{NavFailed: true} },
			want: StatusNotFound,
		},
		{
			name: "non-OK HTTP response independent of DOM content",
			snap: func() Snapshot {
				s := okSnapshot()
				s.HTTPStatus = 404
				s.Title = "Stale title"
				return s
			},
			want: StatusNotFound,
		},
		{
			name: "server error response",
			snap: func() Snapshot {
				s := okSnapshot()
				s.HTTPStatus = 503
				return s
			},
			want: StatusNotFound,
		},
		{
			name: "error URL pattern",
			snap: func() Snapshot {
				s := okSnapshot()
				s.FinalURL = "https://univ.scholarvox.com/error?code=410"
				s.Title = "Stale title"
				return s
			},
			want: StatusNotFound,
		},
		{
			name: "removed marker beats stale title",
			snap: func() Snapshot {
				s := okSnapshot()
				s.RemovedVisible = true
				s.RemovedText = "Cet ouvrage n'est plus disponible"
				s.Title = "Stale title"
				return s
			},
			want: StatusRemoved,
		},
		{
			name: "removal text alone marks removed",
			snap: func() Snapshot {
				s := okSnapshot()
				s.RemovedText = "Cet ouvrage n'est plus disponible"
				return s
			},
			want: StatusRemoved,
		},
		{
			name: "generic unavailable panel marks removed",
			snap: func() Snapshot {
				s := okSnapshot()
				s.UnavailableVisible = true
				s.Title = "Stale title"
				return s
			},
			want: StatusRemoved,
		},
		{
			name: "available soon without removal markers",
			snap: func() Snapshot {
				s := okSnapshot()
				s.BodyText = "Cet ouvrage sera bientôt disponible dans votre bibliothèque"
				s.Title = "Future title"
				return s
			},
			want: StatusAvailableSoon,
		},
		{
			name: "removed wins over available soon",
			snap: func() Snapshot {
				s := okSnapshot()
				s.RemovedVisible = true
				s.BodyText = "Cet ouvrage sera bientôt disponible"
				return s
			},
			want: StatusRemoved,
		},
		{
			name: "non-empty title is found",
			snap: func() Snapshot {
				s := okSnapshot()
				s.Title = "Introduction au droit"
				return s
			},
			want: StatusFound,
		},
		{
			name: "whitespace-only title falls through",
			snap: func() Snapshot {
				s := okSnapshot()
				s.Title = "   "
				return s
			},
			want: StatusNotFound,
		},
		{
			name: "nothing matched",
			snap: func() Snapshot { return okSnapshot() },
			want: StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.snap(), cfg); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	cfg := selectors.Default()
	snap := okSnapshot()
	snap.Title = "Un titre"

	first := Classify(snap, cfg)
	second := Classify(snap, cfg)
	if first != second {
		t.Errorf("classification not idempotent: %v then %v", first, second)
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusFound, "FOUND"},
		{StatusRemoved, "REMOVED"},
		{StatusAvailableSoon, "AVAILABLE_SOON"},
		{StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
