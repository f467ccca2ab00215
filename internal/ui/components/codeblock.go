// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/novagem/internal/ui/styles"
)

// Chroma styles per effective theme.
const (
	darkCodeStyle  = "monokai"
	lightCodeStyle = "github"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is a fenced code block from an answer.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
	Dark     bool
}

// NewCodeBlock creates a new code block.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{
		Language: language,
		Code:     code,
		MaxWidth: 80,
		Dark:     true,
	}
}

// Render renders the code block with a language badge and line numbers.
func (c CodeBlock) Render(theme *styles.Theme) string {
	code := strings.TrimRight(c.Code, "\n")

	language := c.Language
	if language == "" {
		language = detectLanguage(code)
	}

	lines := strings.Split(highlightCode(code, language, c.Dark), "\n")
	rendered := make([]string, 0, len(lines))
	for i, line := range lines {
		rendered = append(rendered, theme.CodeLineNum.Render(strconv.Itoa(i+1))+line)
	}

	var header string
	if c.Language != "" {
		header = theme.CodeLangBadge.Render(c.Language) + "\n"
	}

	maxWidth := c.MaxWidth - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	return theme.CodeBlock.MaxWidth(maxWidth).Render(header + strings.Join(rendered, "\n"))
}

// =============================================================================
// MARKDOWN CODE BLOCK PARSER
// =============================================================================

// ParseCodeBlocks replaces fenced code blocks in text with rendered ones and
// styles inline code in the remaining prose.
func ParseCodeBlocks(text string, maxWidth int, dark bool, theme *styles.Theme) string {
	lines := strings.Split(text, "\n")
	var result []string
	var inCodeBlock bool
	var codeLines []string
	var language string

	flush := func() {
		cb := NewCodeBlock(language, strings.Join(codeLines, "\n"))
		cb.MaxWidth = maxWidth
		cb.Dark = dark
		result = append(result, cb.Render(theme))
		codeLines = nil
		language = ""
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(strings.TrimSpace(line), "```"):
			if inCodeBlock {
				flush()
				inCodeBlock = false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
				inCodeBlock = true
			}
		case inCodeBlock:
			codeLines = append(codeLines, line)
		default:
			result = append(result, ParseInlineCode(line, theme))
		}
	}

	// Unclosed fence: render what we have.
	if inCodeBlock && len(codeLines) > 0 {
		flush()
	}

	return strings.Join(result, "\n")
}

// LastCodeBlock returns the last fenced code block in text. An unclosed
// trailing fence counts when it holds at least one line.
func LastCodeBlock(text string) (CodeBlock, bool) {
	var (
		last     CodeBlock
		found    bool
		inBlock  bool
		language string
		lines    []string
	)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			if inBlock {
				last, found = NewCodeBlock(language, strings.Join(lines, "\n")), true
				inBlock = false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				lines = nil
				inBlock = true
			}
		case inBlock:
			lines = append(lines, line)
		}
	}

	if inBlock && len(lines) > 0 {
		last, found = NewCodeBlock(language, strings.Join(lines, "\n")), true
	}
	return last, found
}

// ParseInlineCode replaces `code` spans with styled inline code.
func ParseInlineCode(text string, theme *styles.Theme) string {
	var result strings.Builder
	var inCode bool
	var codeBuffer strings.Builder

	for _, r := range text {
		switch {
		case r == '`' && inCode:
			result.WriteString(theme.InlineCode.Render(codeBuffer.String()))
			codeBuffer.Reset()
			inCode = false
		case r == '`':
			inCode = true
		case inCode:
			codeBuffer.WriteRune(r)
		default:
			result.WriteRune(r)
		}
	}

	if inCode {
		result.WriteString("`")
		result.WriteString(codeBuffer.String())
	}

	return result.String()
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode returns code with ANSI highlighting, or code unchanged when
// chroma fails.
func highlightCode(code, language string, dark bool) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	name := lightCodeStyle
	if dark {
		name = darkCodeStyle
	}
	style := chromaStyles.Get(name)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// detectLanguage guesses the language of code, or returns "".
func detectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
