// Package server implements the label station: an HTTP service that shares
// one product workbook with every labelgen client on the local network and
// generates label documents on request.
//
// # Endpoints
//
//	GET    /health                              status, workbook and client count
//	GET    /api/version                         station build
//	GET    /api/categories                      categories with product counts
//	POST   /api/categories                      add a category
//	PATCH  /api/categories/{category}           rename and/or renumber
//	DELETE /api/categories/{category}           delete an unused category
//	GET    /api/products[?category=]            list products
//	POST   /api/products                        add a product
//	GET    /api/products/{category}/{id}        one product
//	PATCH  /api/products/{category}/{id}        update a product
//	DELETE /api/products/{category}/{id}        delete a product
//	POST   /api/undo                            revert the last workbook change
//	GET    /api/templates                       label templates and their grids
//	GET    /api/barcodes/{code}.png             Code128 image for a label code
//	POST   /api/labels                          queue a generation job (202)
//	GET    /api/jobs[/{id}]                     job status
//	GET    /api/jobs/{id}/files/{name}          download a generated document
//	GET    /api/logs?level=&module=&limit=      recent log entries
//	GET    /ws                                  job and catalog events
//
// A {category} is a category name (percent-encoded) or its numeric ID.
//
// # Jobs
//
// Generation runs in the background, one job at a time. Progress is pushed
// to WebSocket subscribers as "job" events and can be polled from
// /api/jobs/{id}. Each job writes into output/jobs/<uuid>/.
//
// # Usage Example
//
//	a, err := app.New(reg, app.Overrides{})
//	srv, err := server.New(server.ConfigFrom(reg), a)
//	if err := srv.Start(); err != nil { // blocks until SIGINT/SIGTERM
//		log.Fatal(err)
//	}
//
// When cert_file and key_file are configured the station serves HTTPS with
// TLS 1.2 or newer, and advertises tls=true in its mDNS TXT record.
package server
