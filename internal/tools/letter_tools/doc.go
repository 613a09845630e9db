// Package letter_tools provides MCP tools for producing cover letters.
//
// coverletter_generate runs the whole pipeline for one role and company;
// coverletter_generate_batch runs it for several companies in turn. The
// individual steps are exposed as well so a client can drive them itself:
//
//	drive_copy_template     copy the template under a new title
//	docs_fill_placeholders  replace the company, role and body tokens
//	drive_export_pdf        export a document to a local PDF
package letter_tools
