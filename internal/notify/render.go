package notify

import (
	"fmt"
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/companyhub/companyhub/internal/model"
)

const companyCreatedSubject = "Company Created"

func renderCompanyCreatedText(account *model.Account, company *model.Company) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", account.Username)
	fmt.Fprintf(&b, "Your company %s has been created successfully.\n\n", company.Name)
	fmt.Fprintf(&b, "Number of employees: %d\n", company.EmployeeCount)
	if company.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", company.Description)
	}
	return b.String()
}

func renderCompanyCreatedHTML(account *model.Account, company *model.Company) string {
	details := []g.Node{
		h.Li(h.Strong(g.Text("Number of employees: ")), g.Textf("%d", company.EmployeeCount)),
	}
	if company.Description != "" {
		details = append(details, h.Li(h.Strong(g.Text("Description: ")), g.Text(company.Description)))
	}

	doc := h.HTML(
		h.Lang("en"),
		h.Head(
			h.Meta(h.Charset("utf-8")),
			h.TitleEl(g.Text(companyCreatedSubject)),
		),
		h.Body(
			h.P(g.Textf("Hello %s,", account.Username)),
			h.P(
				g.Text("Your company "),
				h.Strong(g.Text(company.Name)),
				g.Text(" has been created successfully."),
			),
			h.Ul(details...),
		),
	)

	var b strings.Builder
	// strings.Builder never fails to write.
	_ = doc.Render(&b)
	return b.String()
}
