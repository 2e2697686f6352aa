package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/EndrioAlberton/teste-ia/internal/intake"
	"github.com/EndrioAlberton/teste-ia/internal/present"
	"github.com/EndrioAlberton/teste-ia/internal/submission"
)

func (m *model) View() string {
	var body string
	switch m.stage() {
	case stageForm, stageLoading:
		body = m.formView()
	case stageResult:
		body = m.resultView()
	case stageError:
		body = m.errorView()
	}
	parts := []string{m.heroView(), body}
	if m.stage() != stageForm && m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	parts = append(parts, m.statusBarView())
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		heroTitleStyle.Render(heroTitle),
		taglineStyle.Render(heroTagline),
		m.healthView(),
	)
}

func (m *model) healthView() string {
	if !m.healthChecked {
		return helperStyle.Render("○ Verificando backend...")
	}
	if !m.health.Online() {
		return errorStyle.Render("● Backend offline") + helperStyle.Render(" · "+m.health.Message)
	}
	return onlineStyle.Render("● Backend online") + helperStyle.Render(" · API do modelo: "+m.health.ModelAPI)
}

func (m *model) formView() string {
	loading := m.stage() == stageLoading
	text := m.acquirer.Mode() == intake.ModeText

	textTab, fileTab := tabStyle, tabStyle
	if text {
		textTab = activeTabStyle
	} else {
		fileTab = activeTabStyle
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, textTab.Render("Colar Texto"), " ", fileTab.Render("Upload Arquivo"))

	var input []string
	if text {
		input = append(input, m.editor.View())
		count := len([]rune(m.editor.Value()))
		input = append(input, helperStyle.Render(fmt.Sprintf("%d caracteres", count)))
	} else {
		input = append(input, pickerBoxStyle.Render(m.picker.View()))
		if file, ok := m.acquirer.File(); ok {
			input = append(input, selectedFileStyle.Render(fmt.Sprintf("📄 %s (%s)", file.Name, formatSize(file.Size))))
		} else {
			input = append(input, helperStyle.Render("Nenhum arquivo selecionado"))
		}
		input = append(input, helperStyle.Render(fileFormatsHint))
	}

	parts := []string{tabs, strings.Join(input, "\n")}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render("⚠ "+m.errorMessage))
	}
	switch {
	case loading:
		parts = append(parts, fmt.Sprintf("%s %s", m.spinner.View(), buttonDisabledStyle.Render("Processando...")))
	case m.extracting:
		parts = append(parts, fmt.Sprintf("%s %s", m.spinner.View(), buttonDisabledStyle.Render("Lendo arquivo...")))
	default:
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render("Ctrl+S"), keyDescStyle.Render(" Classificar Email")))
	}
	return joinNonEmpty(parts)
}

func (m *model) resultView() string {
	m.refreshViewportIfDirty()
	return m.viewport.View()
}

func (m *model) buildResultContent() string {
	p := m.presenter
	result := p.Result()
	wrap := m.wrapWidth(4)
	cb := &contentBuilder{}

	cb.WriteString(sectionHeaderStyle.Render("Resultado da Classificação"))
	cb.WriteString("\n\n")

	category := result.Category
	if category == "" {
		category = "Sem categoria"
	}
	cb.WriteString(badgeStyle(p.Variant()).Render(category))
	cb.WriteString("  ")
	cb.WriteString(helperStyle.Render(p.Variant().Meaning()))
	cb.WriteString("\n\n")

	percent := p.ConfidencePercent()
	cb.WriteString(fmt.Sprintf("Confiança: %d%%", percent))
	cb.WriteRune('\n')
	cb.WriteString(confidenceBar(percent, p.Variant()))
	cb.WriteRune('\n')

	if result.Rationale != "" {
		cb.WriteRune('\n')
		cb.WriteString(sectionHeaderStyle.Render("Motivo da Classificação"))
		cb.WriteRune('\n')
		cb.WriteString(indentMultiline(wordwrap.String(result.Rationale, wrap), "  "))
		cb.WriteRune('\n')
	}

	cb.WriteRune('\n')
	cb.WriteString(sectionHeaderStyle.Render("Resposta Sugerida"))
	cb.WriteRune('\n')
	cb.WriteString(replyBoxStyle.Render(wordwrap.String(result.SuggestedReply, wrap-4)))
	cb.WriteRune('\n')
	if p.Acknowledged() {
		cb.WriteString(onlineStyle.Render("✓ Copiado!"))
	} else {
		cb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render("c"), keyDescStyle.Render(" Copiar Resposta")))
	}
	cb.WriteRune('\n')

	if p.HasPreview() {
		cb.WriteRune('\n')
		marker := "▸"
		if p.PreviewExpanded() {
			marker = "▾"
		}
		cb.WriteString(sectionHeaderStyle.Render(marker + " Preview do Email Original"))
		cb.WriteString(helperStyle.Render("  (p)"))
		cb.WriteRune('\n')
		if p.PreviewExpanded() {
			preview := previewText(result.OriginalEmail, m.config.PreviewLimit)
			cb.WriteString(previewStyle.Render(indentMultiline(wordwrap.String(preview, wrap), "  ")))
			cb.WriteRune('\n')
		}
	}

	cb.WriteRune('\n')
	cb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render("n"), keyDescStyle.Render(" Nova Análise")))
	return cb.String()
}

func (m *model) errorView() string {
	failed, ok := m.controller.State().(submission.Failed)
	if !ok {
		return ""
	}
	lines := []string{
		errorTitleStyle.Render("Erro"),
		wordwrap.String(failed.Message, m.wrapWidth(8)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render("Enter"), keyDescStyle.Render(" Tentar Novamente")),
	}
	return errorBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) statusBarView() string {
	stats := []string{
		fmt.Sprintf("Estado %s", m.controller.State()),
		fmt.Sprintf("Entrada %s", m.acquirer.Mode()),
	}
	if job := m.lastSubmit; job.Done {
		stats = append(stats, fmt.Sprintf("Última análise %s", job.Duration.Round(10*time.Millisecond)))
	}
	if m.config.Client != nil {
		stats = append(stats, m.config.Client.BaseURL())
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyHints() []keyHint {
	switch m.stage() {
	case stageResult:
		return []keyHint{
			{"c", "Copiar resposta"},
			{"p", "Preview do email"},
			{"n", "Nova análise"},
			{"↑/↓", "Rolar"},
			{"h", "Verificar backend"},
			{"q", "Sair"},
		}
	case stageError:
		return []keyHint{
			{"Enter/r", "Tentar novamente"},
			{"h", "Verificar backend"},
			{"q", "Sair"},
		}
	case stageLoading:
		return []keyHint{
			{"Ctrl+C", "Sair"},
		}
	default:
		return []keyHint{
			{"Tab", "Texto / arquivo"},
			{"Ctrl+S", "Classificar"},
			{"Ctrl+R", "Verificar backend"},
			{"F1", "Ajuda"},
			{"Ctrl+C", "Sair"},
		}
	}
}

func (m *model) keyLegendView() string {
	hints := m.keyHints()
	rows := []string{sectionHeaderStyle.Render("Atalhos")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func confidenceBar(percent int, variant present.Variant) string {
	filled := percent * confidenceBarWidth / 100
	return badgeColorStyle(variant).Render(strings.Repeat("█", filled)) +
		helperStyle.Render(strings.Repeat("░", confidenceBarWidth-filled))
}

func formatSize(size int64) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func variantColor(variant present.Variant) lipgloss.Color {
	switch variant {
	case present.VariantPositive:
		return positiveColor
	case present.VariantCaution:
		return cautionColor
	case present.VariantErrorLike:
		return errorLikeColor
	default:
		panic(fmt.Sprintf("tui: unknown variant %d", int(variant)))
	}
}

func badgeStyle(variant present.Variant) lipgloss.Style {
	return badgeBaseStyle.Background(variantColor(variant))
}

func badgeColorStyle(variant present.Variant) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(variantColor(variant))
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	onlineStyle        = lipgloss.NewStyle().Foreground(positiveColor)

	heroAccentColor        = lipgloss.Color("#7c3aed")
	heroSecondaryTextColor = lipgloss.Color("#a78bfa")
	positiveColor          = lipgloss.Color("#10b981")
	cautionColor           = lipgloss.Color("#f59e0b")
	errorLikeColor         = lipgloss.Color("#ef4444")

	heroTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle        = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle            = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	tabStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 2)
	activeTabStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(heroAccentColor).Padding(0, 2)
	pickerBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	selectedFileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).Bold(true)
	buttonDisabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	badgeBaseStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Padding(0, 1)
	replyBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	previewStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(errorLikeColor)
	errorBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(errorLikeColor).Padding(1, 2)
)
