package notification

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{\{([A-Z_]+)\}\}`)

// Render substitutes {{TAG}} placeholders from vars. Placeholders without
// a matching key pass through unchanged.
func Render(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}

// Template variable keys used by the approval-request message.
const (
	VarManagerName    = "MANAGER_NAME"
	VarRequesterName  = "REQUESTER_NAME"
	VarArea           = "AREA"
	VarProcessID      = "PROCESS_ID"
	VarDescription    = "DESCRIPTION"
	VarReason         = "REASON"
	VarSubmittedAt    = "SUBMITTED_AT"
	VarExpectedReturn = "EXPECTED_RETURN"
	VarApprovalLink   = "APPROVAL_LINK"
)

const ApprovalRequestSubject = "SCSE - Saída de máquina nº {{PROCESS_ID}} aguardando aprovação"

const ApprovalRequestBody = `<p>Olá {{MANAGER_NAME}},</p>
<p>Uma nova solicitação de saída de máquina aguarda sua aprovação:</p>
<ul>
  <li><b>Processo:</b> {{PROCESS_ID}}</li>
  <li><b>Solicitante:</b> {{REQUESTER_NAME}}</li>
  <li><b>Área responsável:</b> {{AREA}}</li>
  <li><b>Material:</b> {{DESCRIPTION}}</li>
  <li><b>Motivo:</b> {{REASON}}</li>
  <li><b>Solicitado em:</b> {{SUBMITTED_AT}}</li>
  <li><b>Retorno previsto:</b> {{EXPECTED_RETURN}}</li>
</ul>
<p><a href="{{APPROVAL_LINK}}">Acessar o SCSE para aprovar ou recusar</a></p>`
