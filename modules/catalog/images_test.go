package catalog

import "testing"

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"explicit base", S3Config{Bucket: "b", BaseURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
		{"custom endpoint", S3Config{Bucket: "b", Endpoint: "http://localhost:9000"}, "http://localhost:9000/b"},
		{"aws", S3Config{Bucket: "b", Region: "ap-south-1"}, "https://b.s3.ap-south-1.amazonaws.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicBaseURL(tt.cfg); got != tt.want {
				t.Errorf("publicBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageKey(t *testing.T) {
	if got := imageKey("p1", "i1", "Front.PNG"); got != "products/p1/i1.png" {
		t.Errorf("imageKey() = %q", got)
	}
	if got := imageKey("p1", "i1", ""); got != "products/p1/i1" {
		t.Errorf("imageKey() without extension = %q", got)
	}
}
