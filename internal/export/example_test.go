// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export_test

import (
	"fmt"

	"github.com/jeranaias/novagem/internal/export"
	"github.com/jeranaias/novagem/internal/model"
)

// ExampleMarkdownExporter renders a short transcript without metadata.
func ExampleMarkdownExporter() {
	msgs := []model.ChatMessage{
		{ID: "msg_1", Role: model.RoleUser, Text: "What is Go?"},
		{ID: "msg_2", Role: model.RoleAI, Text: "A programming language."},
	}

	out, err := export.NewMarkdownExporter(&export.Options{Title: "Quick question"}).Export(msgs)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Print(string(out))
	// Output:
	// # Quick question
	//
	// ### You
	//
	// > What is Go?
	//
	// ---
	//
	// ### NovaGem
	//
	// A programming language.
}
