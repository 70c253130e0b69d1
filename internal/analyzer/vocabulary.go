package analyzer

// defaultVocabulary is the curated table of domain, technical and soft-skill
// terms recognized during keyword extraction. Matching is case-insensitive
// containment, so multi-word terms match as phrases. The table replaces the
// single giant alternation pattern the matching was originally expressed as;
// terms can be overridden at runtime with an external vocabulary file.
var defaultVocabulary = []string{
	// Languages
	"JavaScript", "TypeScript", "Python", "Java", "C++", "C#", "PHP",
	"Ruby", "Go", "Rust", "Swift", "Kotlin", "Scala", "SQL", "NoSQL",

	// Frameworks and runtimes
	"React", "Angular", "Vue", "Node.js", "Express", "Django", "Flask",
	"Spring", "Laravel", "Rails", "Flutter", ".NET", "Next.js",

	// Data stores
	"MongoDB", "PostgreSQL", "MySQL", "Redis", "Elasticsearch",
	"Cassandra", "DynamoDB", "SQLite", "Snowflake", "BigQuery", "Redshift",

	// Cloud and infrastructure
	"AWS", "Azure", "GCP", "Google Cloud", "Docker", "Kubernetes",
	"Terraform", "Ansible", "Helm", "Serverless", "Lambda", "Cloud",
	"Microservices", "Containerization", "Infrastructure", "Linux",

	// Practices and tooling
	"API", "REST", "GraphQL", "gRPC", "Git", "Jenkins", "CI/CD",
	"Agile", "Scrum", "Kanban", "DevOps", "TDD", "Code Review",
	"Version Control", "Unit Testing", "Integration Testing",
	"Automation", "Monitoring", "Logging", "Debugging", "Documentation",

	// Data and ML
	"Machine Learning", "Deep Learning", "Data Science", "AI",
	"Data Pipeline", "Data Warehouse", "ETL", "Analytics", "Reporting",
	"Visualization", "Kafka", "Spark", "Hadoop", "Airflow", "Tableau",
	"Power BI", "Pandas", "NumPy", "TensorFlow", "PyTorch", "NLP",

	// Architecture
	"System Design", "Architecture", "Distributed Systems", "Scalability",
	"Performance", "Reliability", "Availability", "High Availability",
	"Load Balancing", "Caching", "Event Driven", "Message Queue",
	"Domain Driven Design", "Service Oriented",

	// Security
	"Security", "Cybersecurity", "Encryption", "OAuth", "JWT", "SAML",
	"Compliance", "Penetration Testing", "Vulnerability", "Authentication",
	"Authorization", "SSL", "Incident Response",

	// Web and mobile
	"Frontend", "Backend", "Full Stack", "Mobile", "iOS", "Android",
	"UI/UX", "Design", "Responsive", "Accessibility", "SEO", "HTML",
	"CSS", "WebSocket",

	// Business and domain
	"SaaS", "B2B", "B2C", "E-commerce", "Fintech", "Healthcare",
	"Startup", "Enterprise", "Product Management", "Project Management",
	"Business Analysis", "Requirements Gathering", "Roadmap",
	"Stakeholder Management", "Vendor Management", "Budget Management",
	"Risk Management", "Change Management", "Strategic Planning",
	"Go To Market", "Customer Success", "Sales", "Marketing",

	// Quality
	"QA", "Testing", "Quality Assurance", "Test Driven Development",
	"Load Testing", "Performance Testing", "Usability Testing",
	"A/B Testing", "Continuous Improvement", "Best Practices",

	// Soft skills
	"Leadership", "Team Lead", "Mentoring", "Collaboration",
	"Communication", "Problem Solving", "Critical Thinking",
	"Innovation", "Creativity", "Adaptability", "Time Management",
	"Organization", "Attention to Detail", "Decision Making",
	"Conflict Resolution", "Negotiation", "Presentation",
	"Cross Functional", "Remote", "Hybrid",

	// Seniority markers
	"Senior", "Junior", "Principal", "Staff", "Manager", "Director",
	"Architect", "Consultant", "Engineer", "Developer", "Analyst",
}

// skillTerms is the subset of the vocabulary treated as concrete,
// resume-listable skills. Used when deciding whether a job keyword
// should be appended to a skills section.
var skillTerms = []string{
	"JavaScript", "Python", "React", "Node.js", "AWS", "Docker",
	"Kubernetes", "SQL", "NoSQL", "API", "REST", "GraphQL",
	"TypeScript", "Java", "C++", "C#", "PHP", "Ruby", "Go", "Rust",
	"Swift", "Kotlin", "Flutter", "Angular", "Vue", "Express",
	"Django", "Flask", "Spring", "Laravel", "Rails", "MongoDB",
	"PostgreSQL", "MySQL", "Redis", "Elasticsearch", "Git", "Jenkins",
	"CI/CD", "Agile", "Scrum", "DevOps", "Machine Learning", "AI",
	"Data Science", "Cloud", "Microservices", "Serverless",
	"Blockchain", "IoT", "Mobile", "Frontend", "Backend", "Full Stack",
	"UI/UX", "Design",
}
