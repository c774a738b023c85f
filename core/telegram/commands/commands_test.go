package commands

import "testing"

func TestMenuSkipsHiddenAndIncomplete(t *testing.T) {
	menu := Menu([]Command{
		{Name: "weather", Description: "Weather"},
		{Name: "debug", Description: "Internal", Hidden: true},
		{Name: "empty"},
	})
	if len(menu) != 1 || menu[0].Text != "weather" {
		t.Fatalf("menu = %+v", menu)
	}
}

func TestDefaultsAreVisible(t *testing.T) {
	if got := len(Menu(Defaults())); got != 2 {
		t.Fatalf("default menu size = %d", got)
	}
}
