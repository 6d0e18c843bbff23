package advisor

import (
	"fmt"
	"strings"

	"carteira/internal/core"
)

const (
	chatFallback   = "Não consegui processar sua pergunta financeira no momento."
	healthFallback = "Não foi possível gerar análise."
	imageFallback  = "Não foi possível analisar a imagem."
)

func categoryList() string {
	names := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func categorizePrompt(description string, amount core.Money) string {
	return fmt.Sprintf(`Categorize a transação financeira descrita como: %q (Valor: %.2f).
Retorne APENAS uma das seguintes categorias (exatamente como escrito):
%s.
Se não tiver certeza, retorne %s.`, description, amount.Units(), categoryList(), core.CategoryOther)
}

func chatInstruction(contextJSON string) string {
	if strings.TrimSpace(contextJSON) == "" {
		contextJSON = "[]"
	}
	return `Você é um Consultor Financeiro Especialista.
O usuário fará perguntas sobre finanças.
Você tem acesso aos dados financeiros atuais do usuário neste JSON: ` + contextJSON + `

Diretrizes:
1. Responda de forma concisa e prática.
2. Use Markdown para tabelas ou listas quando ajudar.
3. Para perguntas sobre gastos, calcule a partir dos dados fornecidos.
4. Dê conselhos amigáveis focados em economia e investimento.
5. Fale português do Brasil.`
}

func healthPrompt(contextJSON string) string {
	return `Analise estes dados financeiros (JSON): ` + contextJSON + `
Forneça um resumo curto de 3 pontos com:
1. Um elogio sobre o comportamento financeiro.
2. Um ponto de atenção.
3. Uma dica prática para o próximo mês.
Use emojis e formatação Markdown.`
}

const extractAudioPrompt = "Analise o áudio e extraia as transações financeiras."

func extractTextPrompt(input string) string {
	return fmt.Sprintf("Analise este texto e extraia transações financeiras: %q", input)
}

func extractRules() string {
	return `Identifique se é RECEITA (INCOME) ou DESPESA (EXPENSE).
Identifique se é FIXO (FIXED), como aluguel, assinatura ou salário, ou ESPORÁDICO (SPORADIC), como transporte por aplicativo ou jantar.
Categorize entre: ` + categoryList() + `.

Retorne APENAS um JSON array válido, sem Markdown. Exemplo:
[
  {"description": "McDonalds", "amount": 50.00, "type": "EXPENSE", "category": "Alimentação", "expenseType": "SPORADIC"}
]
Se não encontrar nada, retorne [].`
}
