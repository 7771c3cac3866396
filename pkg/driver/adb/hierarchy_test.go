package adb

import (
	"testing"

	"github.com/botts7/visual-mapper-sub000/pkg/core"
)

const sampleDump = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" bounds="[0,0][1080,1920]" clickable="false" enabled="true">
    <node index="0" text="Settings" resource-id="com.app:id/title" class="android.widget.TextView" bounds="[40,120][400,200]" clickable="false" enabled="true"/>
    <node index="1" text="" resource-id="com.app:id/list" class="androidx.recyclerview.widget.RecyclerView" bounds="[0,200][1080,1770]" scrollable="true" enabled="true">
      <node index="0" text="Wi-Fi" resource-id="com.app:id/row" class="android.widget.TextView" bounds="[40,220][1040,380]" clickable="true" enabled="true"/>
      <node index="1" text="" resource-id="" class="android.widget.View" bounds="[40,380][40,380]"/>
    </node>
  </node>
</hierarchy>`

func TestParseHierarchy(t *testing.T) {
	elements, err := ParseHierarchy(sampleDump)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero-area divider node is dropped.
	if len(elements) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(elements))
	}

	title := elements[1]
	if title.Text != "Settings" || title.ResourceID != "com.app:id/title" {
		t.Errorf("unexpected title element: %+v", title)
	}
	if title.Bounds != (core.Bounds{X: 40, Y: 120, Width: 360, Height: 80}) {
		t.Errorf("unexpected title bounds: %+v", title.Bounds)
	}

	list := elements[2]
	if !list.Scrollable {
		t.Error("expected list to be scrollable")
	}
	row := elements[3]
	if !row.Clickable || row.Text != "Wi-Fi" {
		t.Errorf("unexpected row element: %+v", row)
	}
}

func TestParseHierarchyClassTags(t *testing.T) {
	// Plain uiautomator dumps use the class name as the tag.
	data := `<?xml version='1.0'?><hierarchy rotation="0">
		<android.widget.Button text="OK" bounds="[0,0][100,50]" enabled="true"/>
	</hierarchy>`

	elements, err := ParseHierarchy(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elements))
	}
	if elements[0].ClassName != "android.widget.Button" {
		t.Errorf("expected class from tag name, got %q", elements[0].ClassName)
	}
}

func TestParseHierarchyInvalid(t *testing.T) {
	if _, err := ParseHierarchy("ERROR: could not get idle state"); err == nil {
		t.Error("expected error for non-XML input")
	}
}

func TestParseBounds(t *testing.T) {
	cases := []struct {
		in   string
		want core.Bounds
	}{
		{"[0,0][1080,1920]", core.Bounds{X: 0, Y: 0, Width: 1080, Height: 1920}},
		{"[40,220][1040,380]", core.Bounds{X: 40, Y: 220, Width: 1000, Height: 160}},
		{"garbage", core.Bounds{}},
		{"", core.Bounds{}},
	}
	for _, c := range cases {
		if got := parseBounds(c.in); got != c.want {
			t.Errorf("parseBounds(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestExtractHierarchyXML(t *testing.T) {
	out := "UI hierchary dumped to: /dev/tty\n<?xml version='1.0'?><hierarchy rotation=\"0\"></hierarchy>\ntrailing"
	xmlData, err := extractHierarchyXML(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if xmlData[:5] != "<?xml" || xmlData[len(xmlData)-len("</hierarchy>"):] != "</hierarchy>" {
		t.Errorf("unexpected extraction: %q", xmlData)
	}

	if _, err := extractHierarchyXML("ERROR: no dump"); err == nil {
		t.Error("expected error when no XML present")
	}
}

func TestParseDevices(t *testing.T) {
	out := `List of devices attached
emulator-5554	device
0a38Gd91	device
dead0000	offline

`
	serials := parseDevices(out)
	if len(serials) != 2 {
		t.Fatalf("expected 2 ready devices, got %d: %v", len(serials), serials)
	}
	if serials[0] != "emulator-5554" || serials[1] != "0a38Gd91" {
		t.Errorf("unexpected serials: %v", serials)
	}
}
