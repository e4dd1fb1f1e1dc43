package dashboard

import _ "embed"

//go:embed dashboard.html
var indexPage []byte
