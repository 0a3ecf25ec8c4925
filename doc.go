// Package docdex embeds the document retrieval pipeline: attachments
// are extracted, chunked and indexed per session, and queries return
// scored chunks with section provenance.
//
// The same pipeline is served over HTTP by the docdex binary; this
// package is for host applications that want it in-process.
//
//	client, _ := docdex.New(
//	    docdex.WithChunking(docdex.ChunkingSemantic),
//	    docdex.WithIndexing(docdex.IndexingVector),
//	)
//	defer client.Close()
//
//	sess, _ := client.NewSession()
//	_, _ = sess.AddAttachment("pricing.txt", "text/plain", data)
//	hits, _ := sess.Search("pricing plans", 5)
//	for _, hit := range hits {
//	    fmt.Println(hit.Metadata.SectionHeading, hit.Score)
//	}
//
// Retrieval quality can be scored in place against labelled queries:
//
//	report, _ := sess.Evaluate([]docdex.EvaluationQuery{
//	    {Query: "pricing plans", Relevant: []string{"twelve dollars"}},
//	}, 5)
//	fmt.Println(report.MRR)
package docdex
