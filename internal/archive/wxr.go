package archive

import (
	"encoding/xml"
	"time"

	"github.com/y2cl/ljextractor/internal/harvest"
)

// timestampLayout is the fixed textual format used in chunk documents and
// index rows.
const timestampLayout = "2006-01-02 15:04:05"

// The chunk document is a WXR-flavoured RSS export, the schema subset the
// original LiveJournal exports map onto. encoding/xml emits colon-prefixed
// tag names literally, which is exactly what the wp:/dc:/content: elements
// need.
type rssDoc struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	ContentNS string   `xml:"xmlns:content,attr"`
	DCNS      string   `xml:"xmlns:dc,attr"`
	WPNS      string   `xml:"xmlns:wp,attr"`
	Channel   wxrChannel
}

type wxrChannel struct {
	XMLName     xml.Name `xml:"channel"`
	Title       string   `xml:"title"`
	Description string   `xml:"description"`
	BaseSiteURL string   `xml:"wp:base_site_url"`
	BaseBlogURL string   `xml:"wp:base_blog_url"`
	WXRVersion  string   `xml:"wp:wxr_version"`
	Items       []wxrItem
}

type wxrItem struct {
	XMLName    xml.Name `xml:"item"`
	Title      string   `xml:"title"`
	Link       string   `xml:"link"`
	Creator    string   `xml:"dc:creator"`
	Content    string   `xml:"content:encoded"`
	Excerpt    string   `xml:"excerpt:encoded"`
	PostID     string   `xml:"wp:post_id"`
	PostDate   string   `xml:"wp:post_date"`
	PostParent int      `xml:"wp:post_parent"`
	MenuOrder  int      `xml:"wp:menu_order"`
	Status     string   `xml:"wp:status"`
	PostType   string   `xml:"wp:post_type"`
	Comments   []wxrComment
}

type wxrComment struct {
	XMLName     xml.Name `xml:"wp:comment"`
	Type        string   `xml:"type,attr"`
	Approved    string   `xml:"wp:comment_approved"`
	Parent      string   `xml:"wp:comment_parent"`
	ID          string   `xml:"wp:comment_id"`
	PostID      string   `xml:"wp:comment_post_id"`
	Author      string   `xml:"wp:comment_author"`
	AuthorEmail string   `xml:"wp:comment_author_email"`
	AuthorURL   string   `xml:"wp:comment_author_url"`
	Date        string   `xml:"wp:comment_date"`
	Content     string   `xml:"wp:comment_content"`
}

// buildDoc assembles the chunk document for an ordered batch of posts.
func buildDoc(blogURL, creator string, posts []harvest.PostRecord) rssDoc {
	doc := rssDoc{
		Version:   "2.0",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		DCNS:      "http://purl.org/dc/elements/1.1/",
		WPNS:      "http://wordpress.org/export/1.2/",
		Channel: wxrChannel{
			Title:       "LiveJournal Export",
			Description: "Exported from LiveJournal",
			BaseSiteURL: blogURL,
			BaseBlogURL: blogURL,
			WXRVersion:  "1.2",
		},
	}
	for _, post := range posts {
		doc.Channel.Items = append(doc.Channel.Items, buildItem(creator, post))
	}
	return doc
}

func buildItem(creator string, post harvest.PostRecord) wxrItem {
	item := wxrItem{
		Title:    post.Title,
		Link:     post.URL,
		Creator:  creator,
		Content:  post.Body + "\n\n<a href='" + post.URL + "'>Original Post</a>",
		PostID:   post.ID,
		PostDate: post.Published.Format(timestampLayout),
		Status:   "publish",
		PostType: "post",
	}
	appendComments(&item, post.ID, post.Comments)
	return item
}

// appendComments flattens the comment forest depth-first; parent/child links
// survive through the comment_parent references.
func appendComments(item *wxrItem, postID string, nodes []*harvest.CommentNode) {
	for _, node := range nodes {
		item.Comments = append(item.Comments, wxrComment{
			Type:      "comment",
			Approved:  "1",
			Parent:    parentOrZero(node.ParentID),
			ID:        node.ID,
			PostID:    postID,
			Author:    node.Author,
			AuthorURL: node.ProfileURL,
			Date:      formatCommentDate(node.Posted),
			Content:   node.Body,
		})
		appendComments(item, postID, node.Replies)
	}
}

func parentOrZero(parentID string) string {
	if parentID == "" {
		return "0"
	}
	return parentID
}

func formatCommentDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}
