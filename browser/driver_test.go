package browser

import (
	"reflect"
	"testing"
	"time"
)

func TestParseFramePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		absolute bool
		steps    []frameStep
	}{
		{
			name:     "absolute with names",
			path:     "/checkout/payment",
			absolute: true,
			steps: []frameStep{
				{kind: frameName, name: "checkout"},
				{kind: frameName, name: "payment"},
			},
		},
		{
			name:  "relative index",
			path:  "./0",
			steps: []frameStep{{kind: frameIndex, index: 0}},
		},
		{
			name:  "bare name",
			path:  "sidebar",
			steps: []frameStep{{kind: frameName, name: "sidebar"}},
		},
		{
			name:  "up one",
			path:  "..",
			steps: []frameStep{{kind: frameUp}},
		},
		{
			name: "up then down",
			path: "../2/ads",
			steps: []frameStep{
				{kind: frameUp},
				{kind: frameIndex, index: 2},
				{kind: frameName, name: "ads"},
			},
		},
		{
			name:     "root only",
			path:     "/",
			absolute: true,
		},
		{
			name: "empty segments ignored",
			path: "a//b",
			steps: []frameStep{
				{kind: frameName, name: "a"},
				{kind: frameName, name: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			absolute, steps := parseFramePath(tt.path)
			if absolute != tt.absolute {
				t.Errorf("absolute = %v, want %v", absolute, tt.absolute)
			}
			if !reflect.DeepEqual(steps, tt.steps) {
				t.Errorf("steps = %+v, want %+v", steps, tt.steps)
			}
		})
	}
}

func TestFrameLocator(t *testing.T) {
	if got := frameLocator(frameStep{kind: frameIndex, index: 2}); got != "(//iframe)[3]" {
		t.Errorf("index locator = %q", got)
	}
	want := "//iframe[@id='payment' or @name='payment']"
	if got := frameLocator(frameStep{kind: frameName, name: "payment"}); got != want {
		t.Errorf("name locator = %q, want %q", got, want)
	}
}

func TestSetRetryRestores(t *testing.T) {
	d := &Driver{timeout: 5 * time.Second, poll: 500 * time.Millisecond}

	restore := d.SetRetry(time.Second, 100*time.Millisecond)
	if to, po := d.Retry(); to != time.Second || po != 100*time.Millisecond {
		t.Fatalf("after SetRetry: timeout=%v poll=%v", to, po)
	}

	restore()
	if to, po := d.Retry(); to != 5*time.Second || po != 500*time.Millisecond {
		t.Fatalf("after restore: timeout=%v poll=%v", to, po)
	}
}
