package render

import (
	"github.com/a-h/templ"
	templruntime "github.com/a-h/templ/runtime"
)

// Page wraps body in a standalone HTML document. title is escaped; body is
// rendered as is.
func Page(title string, body templ.Component) templ.Component {
	return templruntime.GeneratedTemplate(func(in templruntime.GeneratedComponentInput) (err error) {
		w, ctx := in.Writer, in.Context
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		buf, isBuffer := templruntime.GetBuffer(w)
		if !isBuffer {
			defer func() {
				if bufErr := templruntime.ReleaseBuffer(buf); err == nil {
					err = bufErr
				}
			}()
		}
		ctx = templ.InitializeContext(ctx)

		escapedTitle := templ.EscapeString(title)
		if _, err = buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>"); err != nil {
			return err
		}
		if _, err = buf.WriteString(escapedTitle); err != nil {
			return err
		}
		if _, err = buf.WriteString("</title>\n</head>\n<body>\n<h1>"); err != nil {
			return err
		}
		if _, err = buf.WriteString(escapedTitle); err != nil {
			return err
		}
		if _, err = buf.WriteString("</h1>\n"); err != nil {
			return err
		}
		if err = body.Render(ctx, buf); err != nil {
			return err
		}
		_, err = buf.WriteString("</body>\n</html>\n")
		return err
	})
}
