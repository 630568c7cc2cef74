package provider

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"claude", Claude, false},
		{" Gemini ", Gemini, false},
		{"OPENAI", OpenAI, false},
		{"ollama", Ollama, false},
		{"bard", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultModelIsAvailable(t *testing.T) {
	for _, k := range All() {
		found := false
		for _, m := range k.AvailableModels() {
			if m == k.DefaultModel() {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: default model %q not in available list", k, k.DefaultModel())
		}
	}
}

func TestRequiresKey(t *testing.T) {
	for _, k := range []Kind{Claude, OpenAI, Gemini} {
		if !k.RequiresKey() {
			t.Errorf("%s.RequiresKey() = false, want true", k)
		}
		if k.EnvVar() == "" {
			t.Errorf("%s.EnvVar() is empty", k)
		}
	}
	if Ollama.RequiresKey() {
		t.Error("ollama should not require a key")
	}
}

func TestResolve(t *testing.T) {
	p := Resolve(Gemini, "", Endpoints{})
	if p.Model != "gemini-2.5-flash-lite" {
		t.Errorf("Model = %q, want default", p.Model)
	}
	want := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-lite:generateContent"
	if got := p.URL(); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	p = Resolve(Claude, "claude-3-5-haiku-20241022", Endpoints{Anthropic: "http://localhost:9/v1/messages"})
	if p.URL() != "http://localhost:9/v1/messages" {
		t.Errorf("URL() = %q", p.URL())
	}
	if p.CredentialKey != "claude" {
		t.Errorf("CredentialKey = %q, want claude", p.CredentialKey)
	}

	p = Resolve(Ollama, "", Endpoints{Ollama: "http://box:11434/"})
	if p.URL() != "http://box:11434/api/generate" {
		t.Errorf("URL() = %q", p.URL())
	}
	if p.CredentialKey != "" {
		t.Errorf("ollama CredentialKey = %q, want empty", p.CredentialKey)
	}
}
