package slugutil

import "testing"

func TestMake(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Customer Service Basics", "customer-service-basics"},
		{"  AI 活用 Guide  ", "ai-guide"},
		{"接客研修", "item"},
		{"Hello---World!!", "hello-world"},
		{"", "item"},
		{"Already-Slugged", "already-slugged"},
	}
	for _, tc := range cases {
		if got := Make(tc.title); got != tc.want {
			t.Fatalf("Make(%q): want=%q got=%q", tc.title, tc.want, got)
		}
	}
}
