// Package i18n holds the message catalogues of the web client.
package i18n

import "golang.org/x/text/language"

// DefaultLanguage is used when the browser asks for nothing we know.
const DefaultLanguage = "pt"

var messages = map[string]map[string]string{
	"pt": {
		// validation
		"required":         "Obrigatório",
		"must_be_positive": "Deve ser maior que zero",
		"out_of_range":     "Valor fora do intervalo permitido",
		"invalid_number":   "Número inválido",
		"min_people":       "Adicione pelo menos 2 pessoas",
		"max_people":       "No máximo 10 pessoas",
		"duplicate_name":   "Há nomes repetidos",
		"name_taken":       "Já existe uma pessoa com esse nome",
		"not_distributed":  "Distribua todos os itens antes de finalizar",
		"over_allocated":   "A quantidade distribuída excede a quantidade do item",

		// alerts
		"generic_error":   "Ocorreu um erro. Tente novamente.",
		"select_file":     "Selecione um arquivo",
		"file_too_large":  "Arquivo muito grande (máximo 10MB)",
		"unsupported":     "Formato de arquivo não suportado",
		"no_items":        "Não foi possível extrair itens da nota",
		"scan_failed":     "Falha ao ler a nota. Tente outra foto.",
		"session_expired": "Sua sessão expirou. Entre novamente.",
		"session_renewed": "Sua sessão foi renovada. Tente novamente.",
		"read_only":       "Esta divisão já foi finalizada",
		"invalid_login":   "E-mail ou senha inválidos",

		// screens
		"app_name":          "Compartilha",
		"sign_in":           "Entrar",
		"sign_out":          "Sair",
		"email":             "E-mail",
		"password":          "Senha",
		"upload_title":      "Envie a foto da nota",
		"scan":              "Ler nota",
		"manual":            "Adicionar itens manualmente",
		"history":           "Histórico",
		"people_title":      "Quem vai dividir?",
		"bill_name":         "Nome da divisão",
		"person":            "Pessoa",
		"continue":          "Continuar",
		"back":              "Voltar",
		"items":             "Itens",
		"item":              "Item",
		"quantity":          "Quantidade",
		"unit_price":        "Valor unitário",
		"add_item":          "Adicionar item",
		"edit":              "Editar",
		"delete":            "Excluir",
		"save":              "Salvar",
		"cancel":            "Cancelar",
		"distribute":        "Distribuir",
		"by_quantity":       "Por quantidade",
		"by_value":          "Por valor",
		"remaining":         "Restante",
		"confirm":           "Confirmar",
		"add_person":        "Adicionar pessoa",
		"rename":            "Renomear",
		"fee":               "Taxa de serviço (%)",
		"discount":          "Desconto (R$)",
		"subtotal":          "Subtotal",
		"total":             "Total",
		"progress":          "Distribuído",
		"pending_items":     "Itens pendentes",
		"finalize":          "Finalizar",
		"summary_title":     "Resumo",
		"share_simple":      "Compartilhar resumo",
		"share_detailed":    "Compartilhar detalhes",
		"new_division":      "Nova divisão",
		"status_all":        "Todas",
		"status_open":       "Em andamento",
		"status_finalized":  "Finalizadas",
		"search":            "Buscar",
		"months":            "Últimos meses",
		"duplicate":         "Duplicar",
		"people_count":      "Pessoas",
		"no_divisions":      "Nenhuma divisão encontrada",
		"bill_percent":      "da conta",
		"unassigned_people": "Ninguém",
	},
	"en": {
		"required":         "Required",
		"must_be_positive": "Must be greater than zero",
		"out_of_range":     "Value out of range",
		"invalid_number":   "Invalid number",
		"min_people":       "Add at least 2 people",
		"max_people":       "At most 10 people",
		"duplicate_name":   "Names must be unique",
		"name_taken":       "Someone already has that name",
		"not_distributed":  "Distribute every item before finishing",
		"over_allocated":   "Allocated quantity exceeds the item quantity",

		"generic_error":   "Something went wrong. Please try again.",
		"select_file":     "Select a file",
		"file_too_large":  "File too large (10MB max)",
		"unsupported":     "Unsupported file format",
		"no_items":        "Could not extract items from the receipt",
		"scan_failed":     "Could not read the receipt. Try another photo.",
		"session_expired": "Your session expired. Please sign in again.",
		"session_renewed": "Your session was renewed. Please try again.",
		"read_only":       "This division is already finished",
		"invalid_login":   "Invalid email or password",

		"app_name":          "Compartilha",
		"sign_in":           "Sign in",
		"sign_out":          "Sign out",
		"email":             "Email",
		"password":          "Password",
		"upload_title":      "Upload a photo of the receipt",
		"scan":              "Scan receipt",
		"manual":            "Add items manually",
		"history":           "History",
		"people_title":      "Who is splitting?",
		"bill_name":         "Division name",
		"person":            "Person",
		"continue":          "Continue",
		"back":              "Back",
		"items":             "Items",
		"item":              "Item",
		"quantity":          "Quantity",
		"unit_price":        "Unit price",
		"add_item":          "Add item",
		"edit":              "Edit",
		"delete":            "Delete",
		"save":              "Save",
		"cancel":            "Cancel",
		"distribute":        "Distribute",
		"by_quantity":       "By quantity",
		"by_value":          "By value",
		"remaining":         "Remaining",
		"confirm":           "Confirm",
		"add_person":        "Add person",
		"rename":            "Rename",
		"fee":               "Service fee (%)",
		"discount":          "Discount (R$)",
		"subtotal":          "Subtotal",
		"total":             "Total",
		"progress":          "Distributed",
		"pending_items":     "Pending items",
		"finalize":          "Finish",
		"summary_title":     "Summary",
		"share_simple":      "Share summary",
		"share_detailed":    "Share details",
		"new_division":      "New division",
		"status_all":        "All",
		"status_open":       "In progress",
		"status_finalized":  "Finished",
		"search":            "Search",
		"months":            "Last months",
		"duplicate":         "Duplicate",
		"people_count":      "People",
		"no_divisions":      "No divisions found",
		"bill_percent":      "of the bill",
		"unassigned_people": "Nobody",
	},
}

// T returns the message for code in lang. Unknown languages fall back to
// DefaultLanguage and unknown codes to the code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLanguage][code]; ok {
		return s
	}
	return code
}

// supported lists the catalogues for the matcher; the first is the default.
var (
	supported = []string{"pt", "en"}
	matcher   = language.NewMatcher([]language.Tag{language.Portuguese, language.English})
)

// DetectLanguage picks a supported language from an Accept-Language header,
// honouring its q-weights.
func DetectLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, i, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return supported[i]
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}
