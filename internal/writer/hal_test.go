package writer

import "testing"

func editable() map[string]interface{} {
	return map[string]interface{}{
		"id": "a",
		"links": []interface{}{
			map[string]interface{}{"rel": "edit", "href": "http://api.example.org/dataset/a"},
			map[string]interface{}{"rel": "alternate", "href": "http://data.example.org/a", "type": "text/html"},
		},
	}
}

func TestHALLinks(t *testing.T) {
	out := decode(t, render(t, NewHAL(), model(editable()), bag(t, "q=")))

	links := out["_links"].(map[string]interface{})
	if self := links["self"].(map[string]interface{}); self["href"] != "http://api.example.org/dataset?q=" {
		t.Errorf("self: got %v", self)
	}
	if _, ok := links["next"]; ok {
		t.Errorf("absent links should be left out: %v", links)
	}

	edits := links["edit"].([]interface{})
	if len(edits) != 1 || edits[0].(map[string]interface{})["href"] != "http://api.example.org/dataset/a" {
		t.Errorf("edit: got %v", edits)
	}

	if embedded := out["_embedded"].(map[string]interface{}); len(embedded) != 0 {
		t.Errorf("records are embedded only on request: %v", embedded)
	}
}

func TestHALEmbed(t *testing.T) {
	out := decode(t, render(t, NewHAL(), model(editable()), bag(t, "embed=true")))

	docs := out["_embedded"].(map[string]interface{})["document"].([]interface{})
	if len(docs) != 1 {
		t.Fatalf("expected one embedded document, got %v", docs)
	}

	doc := docs[0].(map[string]interface{})
	if _, ok := doc["links"]; ok {
		t.Errorf("links list should be replaced: %v", doc)
	}
	alt := doc["_links"].(map[string]interface{})["alternate"].(map[string]interface{})
	if alt["type"] != "text/html" || alt["rel"] != nil {
		t.Errorf("alternate: got %v", alt)
	}
}
