package catalog

import "testing"

func TestParseDocID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"raw id", "88442255", "88442255", false},
		{"raw id with whitespace", "  88442255\n", "88442255", false},
		{"catalog URL", "https://univ.scholarvox.com/catalog/book/docid/88442255", "88442255", false},
		{"reader URL", "https://univ.scholarvox.com/reader/docid/88442255/page/4", "88442255", false},
		{"trailing slash", "https://univ.scholarvox.com/catalog/book/docid/88442255/", "88442255", false},
		{"URL without docid", "https://univ.scholarvox.com/catalog", "", true},
		{"empty", "", "", true},
		{"id with slash", "not/an/id", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDocID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDocID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
