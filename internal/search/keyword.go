package search

import (
	"context"
	"strings"
)

type keywordEntry struct {
	URL     string
	Title   string
	Snippet string
}

// keywordIndex is a small offline index of well-known reference pages.
var keywordIndex = map[string]keywordEntry{
	"inteligencia artificial": {
		URL:     "https://es.wikipedia.org/wiki/Inteligencia_artificial",
		Title:   "Inteligencia artificial - Wikipedia",
		Snippet: "La inteligencia artificial es la simulación de procesos de inteligencia humana por parte de máquinas",
	},
	"calentamiento global": {
		URL:     "https://www.nationalgeographic.es/medio-ambiente/que-es-el-calentamiento-global",
		Title:   "¿Qué es el calentamiento global? - National Geographic",
		Snippet: "El calentamiento global es el aumento a largo plazo de la temperatura media del sistema climático de la Tierra",
	},
	"energía renovable": {
		URL:     "https://www.ree.es/es/sostenibilidad/energias-renovables",
		Title:   "Energías renovables - Red Eléctrica de España",
		Snippet: "Las energías renovables son aquellas que se obtienen de fuentes naturales inagotables a escala humana",
	},
	"algoritmo": {
		URL:     "https://concepto.de/algoritmo-en-informatica/",
		Title:   "Concepto de Algoritmo en Informática",
		Snippet: "Un algoritmo es un conjunto de instrucciones o reglas definidas y no-ambiguas, ordenadas y finitas",
	},
}

// keywordOrder fixes iteration order over keywordIndex.
var keywordOrder = []string{"inteligencia artificial", "calentamiento global", "energía renovable", "algoritmo"}

// Keyword answers from the offline index. It never touches the network
// and is only consulted when every live backend came back empty.
type Keyword struct{}

func (Keyword) Name() string { return "Keyword Index" }

func (k Keyword) Search(_ context.Context, fragment string) ([]Result, error) {
	lower := strings.ToLower(fragment)
	var out []Result
	for _, kw := range keywordOrder {
		if !strings.Contains(lower, kw) {
			continue
		}
		e := keywordIndex[kw]
		out = append(out, Result{URL: e.URL, Title: e.Title, Snippet: e.Snippet})
	}
	return finalize(out, k.Name()), nil
}
