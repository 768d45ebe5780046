package wiki

import (
	"fmt"
	"strings"

	"github.com/julianshen/docsmith/internal/analysis"
)

// renderSequence synthesizes one request/response round trip per endpoint.
// A service hop is drawn only for endpoints with a ServiceRef.
func renderSequence(g *analysis.Graph, opts DiagramOptions) Diagram {
	var eps []analysis.Endpoint
	var keys []string
	seenKey := make(map[string]bool)
	for _, ep := range g.Endpoints {
		if opts.Focus != "" && ep.HandlerClass != opts.Focus {
			continue
		}
		key := handlerName(ep) + " " + ep.Locator()
		if seenKey[key] {
			continue
		}
		seenKey[key] = true
		eps = append(eps, ep)
		keys = append(keys, key)
	}

	selected, total := selectNodes(keys, nil, false, opts.MaxNodes)
	eps = eps[:len(selected)]

	ids := newNodeIDs()
	clientID := ids.reserved("client", "Client")

	var b strings.Builder
	b.WriteString("sequenceDiagram\n")
	fmt.Fprintf(&b, "    participant %s as Client\n", clientID)

	declared := make(map[string]bool)
	participant := func(name string) string {
		id := ids.get(name)
		if !declared[id] {
			declared[id] = true
			fmt.Fprintf(&b, "    participant %s as %s\n", id, SanitizeLabel(name))
		}
		return id
	}
	for _, ep := range eps {
		participant(handlerName(ep))
		if ep.ServiceRef != "" {
			participant(ep.ServiceRef)
		}
	}

	messages := 0
	for _, ep := range eps {
		hID := ids.get(handlerName(ep))
		fmt.Fprintf(&b, "    %s->>%s: %s\n", clientID, hID, SanitizeLabel(ep.Locator()))
		messages++
		if ep.ServiceRef != "" {
			sID := ids.get(ep.ServiceRef)
			call := ep.Handler
			if call == "" {
				call = "call"
			}
			fmt.Fprintf(&b, "    %s->>%s: %s\n", hID, sID, SanitizeLabel(call))
			fmt.Fprintf(&b, "    %s-->>%s: result\n", sID, hID)
			messages += 2
		}
		ret := ep.ReturnType
		if ret == "" {
			ret = "response"
		}
		fmt.Fprintf(&b, "    %s-->>%s: %s\n", hID, clientID, SanitizeLabel(ret))
		messages++
	}

	return Diagram{
		Title:     "Request Flow",
		Content:   b.String(),
		NodeCount: len(selected),
		EdgeCount: messages,
		Total:     total,
		Unit:      "endpoints",
	}
}
