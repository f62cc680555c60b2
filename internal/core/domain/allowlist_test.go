package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowList_Allows(t *testing.T) {
	tests := []struct {
		name    string
		list    AllowList
		command string
		want    bool
	}{
		{"exact match", AllowList{"git.status"}, "git.status", true},
		{"exact mismatch", AllowList{"git.status"}, "git.push", false},
		{"exact does not prefix", AllowList{"git"}, "git.status", false},
		{"wildcard prefix", AllowList{"git.*"}, "git.push", true},
		{"wildcard prefix itself", AllowList{"git.*"}, "git.", true},
		{"wildcard miss", AllowList{"git.*"}, "go.build", false},
		{"bare wildcard allows all", AllowList{"*"}, "anything", true},
		{"second entry matches", AllowList{"a.*", "b.exec"}, "b.exec", true},
		{"marker only trailing", AllowList{"*.run"}, "a.run", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.list.Allows(tt.command))
		})
	}
}

// An empty allow-list is fail-open: it permits every command.
func TestAllowList_EmptyPermitsEverything(t *testing.T) {
	for _, list := range []AllowList{nil, {}} {
		assert.True(t, list.IsEmpty())
		for _, cmd := range []string{"", "rm.everything", "workbench.action.files.save"} {
			assert.True(t, list.Allows(cmd), "empty list must allow %q", cmd)
		}
	}
}

func TestAllowList_Filter(t *testing.T) {
	list := AllowList{"a.*", "b.exec"}
	got := list.Filter([]string{"a.run", "c.other", "b.exec", "a.stop"})

	assert.Equal(t, []string{"a.run", "b.exec", "a.stop"}, got)
}

func TestAllowList_Normalise(t *testing.T) {
	list := AllowList{" git.* ", "", "   ", "make.build"}

	assert.Equal(t, AllowList{"git.*", "make.build"}, list.Normalise())
}
